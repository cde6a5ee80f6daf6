package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centralizes every setting the worker daemon and CLI need.
type Config struct {
	// PostgresDSN is the connection string for the shared job queue database.
	PostgresDSN string

	// Object storage connection for job inputs and outputs.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioSecure    bool

	InputBucket  string
	OutputBucket string

	// Worker identity reported through heartbeats.
	WorkerKey          string
	WorkerDisplayName  string
	WorkerIPAddress    string
	WorkerTagsJSON     string
	WorkerCapacityJSON string

	// IdleSleep is how long the poll loop waits after finding no queued job.
	IdleSleep time.Duration

	// KeepFramesForDebug preserves per-job scratch directories after runs.
	KeepFramesForDebug bool

	// WorkDir holds per-job scratch space, the daemon lock file, and logs.
	WorkDir string

	LogLevel  string
	LogFormat string

	FFmpegBinary string
	Da3Binary    string
}

// Load merges an optional dotenv file into the process environment, then
// builds a validated Config from it. An empty envFile consults ./.env on a
// best-effort basis.
func Load(envFile string) (*Config, error) {
	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a validated Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fromEnv() error {
	c.PostgresDSN = envString("POSTGRES_DSN", c.PostgresDSN)
	c.MinioEndpoint = envString("MINIO_ENDPOINT", c.MinioEndpoint)
	c.MinioAccessKey = envString("MINIO_ACCESS_KEY", c.MinioAccessKey)
	c.MinioSecretKey = envString("MINIO_SECRET_KEY", c.MinioSecretKey)
	c.InputBucket = envString("JOB_INPUT_BUCKET", c.InputBucket)
	c.OutputBucket = envString("JOB_OUTPUT_BUCKET", c.OutputBucket)
	c.WorkerKey = envString("WORKER_KEY", c.WorkerKey)
	c.WorkerDisplayName = envString("WORKER_DISPLAY_NAME", c.WorkerDisplayName)
	c.WorkerIPAddress = envString("WORKER_IP_ADDRESS", c.WorkerIPAddress)
	c.WorkerTagsJSON = envString("WORKER_TAGS_JSON", c.WorkerTagsJSON)
	c.WorkerCapacityJSON = envString("WORKER_CAPACITY_JSON", c.WorkerCapacityJSON)
	c.WorkDir = envString("WORK_DIR", c.WorkDir)
	c.LogLevel = envString("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envString("LOG_FORMAT", c.LogFormat)
	c.FFmpegBinary = envString("FFMPEG_BIN", c.FFmpegBinary)
	c.Da3Binary = envString("DA3_BIN", c.Da3Binary)

	var err error
	if c.MinioSecure, err = envBool("MINIO_SECURE", c.MinioSecure); err != nil {
		return err
	}
	if c.KeepFramesForDebug, err = envBool("KEEP_FRAMES_FOR_DEBUG", c.KeepFramesForDebug); err != nil {
		return err
	}
	if c.IdleSleep, err = envSeconds("IDLE_SLEEP_SEC", c.IdleSleep); err != nil {
		return err
	}
	return nil
}

// EnsureDirectories creates the directories the daemon requires at startup.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work directory %q: %w", c.WorkDir, err)
	}
	return nil
}

// LogPath returns the daemon log file location inside the work directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.WorkDir, "parallaxd.log")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.WorkDir, "parallaxd.lock")
}

func envString(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func envBool(name string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return fallback, nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q for %s", value, name)
	}
}

func envSeconds(name string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q for %s: %w", value, name, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
