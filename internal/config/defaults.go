package config

import "time"

const (
	defaultWorkDir      = "~/.local/share/parallax/work"
	defaultWorkerTags   = "{}"
	defaultCapacity     = "{}"
	defaultIdleSleep    = 2 * time.Second
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultFFmpegBinary = "ffmpeg"
	defaultDa3Binary    = "da3"
)

// Default returns a Config populated with repository defaults. Required
// connection settings (Postgres DSN, MinIO credentials, bucket names) stay
// empty and fail validation until supplied.
func Default() Config {
	return Config{
		WorkDir:            defaultWorkDir,
		WorkerTagsJSON:     defaultWorkerTags,
		WorkerCapacityJSON: defaultCapacity,
		IdleSleep:          defaultIdleSleep,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		FFmpegBinary:       defaultFFmpegBinary,
		Da3Binary:          defaultDa3Binary,
	}
}
