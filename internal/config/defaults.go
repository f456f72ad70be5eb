package config

const (
	defaultConfigPath           = "~/.config/agencyboard/config.toml"
	defaultDataDir              = "~/.local/share/agencyboard"
	defaultLogDir               = "~/.local/share/agencyboard/logs"
	defaultDocumentsDir         = "~/.local/share/agencyboard/documents"
	defaultAPIBind              = "127.0.0.1:7390"
	defaultRefreshInterval      = 60
	defaultFetchLimit           = 500
	defaultURLTTLSeconds        = 3600
	defaultMaxUploadMiB         = 25
	defaultWebhookTimeout       = 15
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	maxFetchLimit               = 5000
	minRefreshIntervalSeconds   = 5
	defaultWatchBoard           = "operacoes"
	envAPIToken                 = "AGENCYBOARD_API_TOKEN"
	envSigningKey               = "AGENCYBOARD_SIGNING_KEY"
	envNtfyTopic                = "AGENCYBOARD_NTFY_TOPIC"
	defaultNotifyNewRecords     = true
	defaultNotifyPartialCommits = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			DocumentsDir: defaultDocumentsDir,
			APIBind:      defaultAPIBind,
		},
		Board: Board{
			RefreshInterval: defaultRefreshInterval,
			FetchLimit:      defaultFetchLimit,
			WatchBoards:     []string{defaultWatchBoard},
		},
		Documents: Documents{
			URLTTLSeconds: defaultURLTTLSeconds,
			MaxUploadMiB:  defaultMaxUploadMiB,
		},
		Webhooks: Webhooks{
			RequestTimeout: defaultWebhookTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			NewRecords:     defaultNotifyNewRecords,
			PartialCommits: defaultNotifyPartialCommits,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
