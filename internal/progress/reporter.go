package progress

// Reporter receives phase transitions and counter updates during a job run.
// Implementations must be safe to call from the single pipeline goroutine
// and must never propagate failures back into the pipeline.
type Reporter interface {
	// ReportPhase announces entry into a named pipeline phase.
	ReportPhase(phase, message string)
	// ReportProgress reports current/total completion within the active
	// phase. Sinks may throttle intermediate updates.
	ReportProgress(current, total int, message string)
}

// Composite relays notifications to an ordered list of sinks.
type Composite struct {
	sinks []Reporter
}

// NewComposite builds a fan-out reporter. Nil sinks are skipped.
func NewComposite(sinks ...Reporter) *Composite {
	kept := make([]Reporter, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &Composite{sinks: kept}
}

// ReportPhase fans the phase notification out to every sink in order.
func (c *Composite) ReportPhase(phase, message string) {
	for _, sink := range c.sinks {
		relayPhase(sink, phase, message)
	}
}

// ReportProgress fans the counter update out to every sink in order.
func (c *Composite) ReportProgress(current, total int, message string) {
	for _, sink := range c.sinks {
		relayProgress(sink, current, total, message)
	}
}

// A misbehaving sink must not take down the pipeline or starve the sinks
// after it, so each relay call absorbs panics.
func relayPhase(sink Reporter, phase, message string) {
	defer func() { _ = recover() }()
	sink.ReportPhase(phase, message)
}

func relayProgress(sink Reporter, current, total int, message string) {
	defer func() { _ = recover() }()
	sink.ReportProgress(current, total, message)
}

// safeTotal normalizes the denominator: totals of zero or below count as 1
// so percent math never divides by zero.
func safeTotal(total int) int {
	if total <= 0 {
		return 1
	}
	return total
}
