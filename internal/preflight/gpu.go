package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GPUProbe reports the CUDA device snapshot visible to this host.
type GPUProbe struct {
	Detected bool
	Name     string
	Memory   string
	Count    int
}

// ProbeGPU queries nvidia-smi for installed GPUs. A missing tool or a
// failing query reports no GPU rather than an error.
func ProbeGPU() GPUProbe {
	if _, err := exec.LookPath("nvidia-smi"); err != nil {
		return GPUProbe{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader")
	output, err := cmd.Output()
	if err != nil {
		return GPUProbe{}
	}
	return parseGPUList(string(output))
}

func parseGPUList(output string) GPUProbe {
	var probe GPUProbe
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		probe.Count++
		if probe.Count > 1 {
			continue
		}
		probe.Name = line
		// memory.total is the last CSV field; GPU names keep their commas.
		if idx := strings.LastIndex(line, ","); idx >= 0 {
			probe.Name = strings.TrimSpace(line[:idx])
			probe.Memory = strings.TrimSpace(line[idx+1:])
		}
	}
	probe.Detected = probe.Count > 0
	return probe
}

// Detail renders a display-friendly summary for status UIs.
func (p GPUProbe) Detail() string {
	if !p.Detected {
		return "No GPU detected"
	}
	detail := p.Name
	if p.Memory != "" {
		detail = fmt.Sprintf("%s (%s)", p.Name, p.Memory)
	}
	if p.Count > 1 {
		detail = fmt.Sprintf("%s and %d more", detail, p.Count-1)
	}
	return detail
}
