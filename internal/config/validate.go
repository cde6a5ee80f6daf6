package config

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateRuntime(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.MinioEndpoint == "" {
		return errors.New("MINIO_ENDPOINT must be set")
	}
	if c.MinioAccessKey == "" {
		return errors.New("MINIO_ACCESS_KEY must be set")
	}
	if c.MinioSecretKey == "" {
		return errors.New("MINIO_SECRET_KEY must be set")
	}
	if c.InputBucket == "" {
		return errors.New("JOB_INPUT_BUCKET must be set")
	}
	if c.OutputBucket == "" {
		return errors.New("JOB_OUTPUT_BUCKET must be set")
	}
	return nil
}

func (c *Config) validateWorker() error {
	if !json.Valid([]byte(c.WorkerTagsJSON)) {
		return fmt.Errorf("WORKER_TAGS_JSON is not valid JSON: %q", c.WorkerTagsJSON)
	}
	if !json.Valid([]byte(c.WorkerCapacityJSON)) {
		return fmt.Errorf("WORKER_CAPACITY_JSON is not valid JSON: %q", c.WorkerCapacityJSON)
	}
	if c.IdleSleep <= 0 {
		return errors.New("IDLE_SLEEP_SEC must be positive")
	}
	return nil
}

func (c *Config) validateRuntime() error {
	if c.WorkDir == "" {
		return errors.New("WORK_DIR must be set")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.FFmpegBinary == "" {
		return errors.New("FFMPEG_BIN must be set")
	}
	if c.Da3Binary == "" {
		return errors.New("DA3_BIN must be set")
	}
	return nil
}
