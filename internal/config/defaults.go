package config

const (
	defaultAPIBaseURL           = "http://127.0.0.1:8000/api"
	defaultAPITimeoutSeconds    = 30
	defaultUserAgent            = "vidgen/0.1.0"
	defaultPollIntervalSeconds  = 2
	defaultVideoResolution      = "1920x1080"
	defaultVideoFPS             = 24
	defaultVideoDuration        = 30
	defaultVideoQuality         = "high"
	defaultMaxImageBytes        = 5 * 1024 * 1024
	defaultLogDir               = "~/.local/share/vidgen/logs"
	defaultStateDir             = "~/.local/share/vidgen"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultNotifyRequestTimeout = 10
	defaultHistoryPath          = "~/.local/share/vidgen/history.db"
	defaultDevServerBind        = "127.0.0.1:8000"
	defaultDevServerStepMillis  = 1500
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Poller: Poller{
			IntervalSeconds: defaultPollIntervalSeconds,
		},
		Video: Video{
			Resolution: defaultVideoResolution,
			FPS:        defaultVideoFPS,
			Duration:   defaultVideoDuration,
			Quality:    defaultVideoQuality,
		},
		Upload: Upload{
			MaxImageBytes: defaultMaxImageBytes,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completed:      true,
			Failed:         true,
		},
		History: History{
			Enabled: false,
			Path:    defaultHistoryPath,
		},
		DevServer: DevServer{
			Bind:       defaultDevServerBind,
			StepMillis: defaultDevServerStepMillis,
		},
	}
}
