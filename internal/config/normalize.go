package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeWorker(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeWorker() error {
	c.WorkerKey = strings.TrimSpace(c.WorkerKey)
	if c.WorkerKey == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("resolve hostname for worker key: %w", err)
		}
		c.WorkerKey = host
	}
	if strings.TrimSpace(c.WorkerDisplayName) == "" {
		c.WorkerDisplayName = c.WorkerKey
	}
	if strings.TrimSpace(c.WorkerTagsJSON) == "" {
		c.WorkerTagsJSON = defaultWorkerTags
	}
	if strings.TrimSpace(c.WorkerCapacityJSON) == "" {
		c.WorkerCapacityJSON = defaultCapacity
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.WorkDir, err = expandPath(c.WorkDir); err != nil {
		return fmt.Errorf("work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
}
