package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Config holds every runtime-tunable setting. The security thresholds are
// deliberately configuration, not constants: admins adjust them through the
// settings endpoint without a redeploy.
type Config struct {
	Site struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"site"`

	Security struct {
		// RequestLimit is the maximum number of requests a single IP may
		// send inside the request window before it is banned.
		RequestLimit           uint32 `json:"request_limit"`
		RequestWindowSeconds   uint32 `json:"request_window_seconds"`
		PostBurstLimit         uint32 `json:"post_burst_limit"`
		PostBurstWindowSeconds uint32 `json:"post_burst_window_seconds"`
		BanDurationSeconds     uint32 `json:"ban_duration_seconds"`

		TrackingRetentionMinutes uint32 `json:"tracking_retention_minutes"`
		EventRetentionDays       uint32 `json:"event_retention_days"`

		CaptchaTTLSeconds uint32 `json:"captcha_ttl_seconds"`
		CSRFTTLSeconds    uint32 `json:"csrf_ttl_seconds"`

		// TrustForwardedHeaders controls whether client IPs are taken from
		// CF-Connecting-IP / X-Real-IP / X-Forwarded-For. Disable when the
		// server is not behind a proxy, otherwise bans are trivially spoofed.
		TrustForwardedHeaders bool `json:"trust_forwarded_headers"`
	} `json:"security"`

	Maintenance struct {
		PruneTimer Timer `json:"prune_timer"`
	} `json:"maintenance"`

	GeoIP struct {
		DatabasePath string `json:"database_path"`
	} `json:"geoip"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	configMu    sync.Mutex

	InProductionMode bool
)

func init() {
	configValue.Store(Config{})
}

func SetProductionMode(enabled bool) {
	InProductionMode = enabled
}

func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			if err := os.MkdirAll("data", os.ModePerm); err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}

			if err := os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm); err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	if err := applyConfigUpdate(newConfig, configUpdateOptions{source: "file"}); err != nil {
		log.Error("Error applying configuration from settings file:", err)
		return
	}

	log.Debug("Settings file loaded successfully")
}

func SetConfig(newConfig Config) {
	if err := applyConfigUpdate(newConfig, configUpdateOptions{persistToFile: true, broadcast: true, source: "local"}); err != nil {
		log.Error("Error applying configuration update:", err)
		return
	}

	log.Debug("Configuration updated and written to file successfully")
}

type configUpdateOptions struct {
	persistToFile bool
	broadcast     bool
	source        string
}

func applyConfigUpdate(newConfig Config, opts configUpdateOptions) error {
	configMu.Lock()
	defer configMu.Unlock()

	normalizeConfig(&newConfig)
	configValue.Store(newConfig)
	setPruneInterval(CalculateBetweenTime(newConfig.Maintenance.PruneTimer))

	var errs []error

	if opts.persistToFile {
		data, err := json.MarshalIndent(newConfig, "", "  ")
		if err != nil {
			log.Error("Error marshalling new configuration:", err)
			errs = append(errs, err)
		} else if err := os.WriteFile(settingsFilePath, data, os.ModePerm); err != nil {
			log.Error("Error writing new configuration to file:", err)
			errs = append(errs, err)
		}
	}

	if opts.broadcast {
		payload, err := json.Marshal(newConfig)
		if err != nil {
			log.Error("Error serializing configuration for broadcast:", err)
			errs = append(errs, err)
		} else if err := broadcastConfigUpdate(payload); err != nil {
			log.Error("Error broadcasting configuration update:", err)
			errs = append(errs, err)
		}
	}

	if opts.source != "" {
		log.Debug("Configuration applied", "source", opts.source)
	}

	return errors.Join(errs...)
}

// normalizeConfig backfills zero values with the shipped defaults so a
// hand-edited settings file can never zero out an admission threshold.
func normalizeConfig(cfg *Config) {
	var defaults Config
	if err := json.Unmarshal(defaultConfig, &defaults); err != nil {
		return
	}

	sec := &cfg.Security
	def := defaults.Security
	if sec.RequestLimit == 0 {
		sec.RequestLimit = def.RequestLimit
	}
	if sec.RequestWindowSeconds == 0 {
		sec.RequestWindowSeconds = def.RequestWindowSeconds
	}
	if sec.PostBurstLimit == 0 {
		sec.PostBurstLimit = def.PostBurstLimit
	}
	if sec.PostBurstWindowSeconds == 0 {
		sec.PostBurstWindowSeconds = def.PostBurstWindowSeconds
	}
	if sec.BanDurationSeconds == 0 {
		sec.BanDurationSeconds = def.BanDurationSeconds
	}
	if sec.TrackingRetentionMinutes == 0 {
		sec.TrackingRetentionMinutes = def.TrackingRetentionMinutes
	}
	if sec.EventRetentionDays == 0 {
		sec.EventRetentionDays = def.EventRetentionDays
	}
	if sec.CaptchaTTLSeconds == 0 {
		sec.CaptchaTTLSeconds = def.CaptchaTTLSeconds
	}
	if sec.CSRFTTLSeconds == 0 {
		sec.CSRFTTLSeconds = def.CSRFTTLSeconds
	}
}

func GetConfig() Config {
	return configValue.Load().(Config)
}

// Duration accessors for the security windows.

func (c Config) RequestWindow() time.Duration {
	return time.Duration(c.Security.RequestWindowSeconds) * time.Second
}

func (c Config) PostBurstWindow() time.Duration {
	return time.Duration(c.Security.PostBurstWindowSeconds) * time.Second
}

func (c Config) BanDuration() time.Duration {
	return time.Duration(c.Security.BanDurationSeconds) * time.Second
}

func (c Config) TrackingRetention() time.Duration {
	return time.Duration(c.Security.TrackingRetentionMinutes) * time.Minute
}

func (c Config) EventRetention() time.Duration {
	return time.Duration(c.Security.EventRetentionDays) * 24 * time.Hour
}

func (c Config) CaptchaTTL() time.Duration {
	return time.Duration(c.Security.CaptchaTTLSeconds) * time.Second
}

func (c Config) CSRFTTL() time.Duration {
	return time.Duration(c.Security.CSRFTTLSeconds) * time.Second
}
