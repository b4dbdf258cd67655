package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type RelayConfig struct {
	Stage                 string   `envconfig:"STAGE" default:"dev"`
	ProjectID             string   `envconfig:"GOOGLE_CLOUD_PROJECT_ID"`
	Port                  string   `envconfig:"PORT" default:"8080"`
	BindAddress           string   `envconfig:"BIND_ADDRESS"`
	AllowedOrigins        []string `envconfig:"ALLOWED_ORIGINS"`
	MaxBodyBytes          int64    `envconfig:"MAX_BODY_BYTES" default:"65536"`
	MaxConcurrentForwards int64    `envconfig:"MAX_CONCURRENT_FORWARDS" default:"8"`
	Version               string
	DisableMetrics        bool `envconfig:"DISABLE_METRICS"`
}

func NewRelayConfigFromEnv() (*RelayConfig, error) {
	var rCfg RelayConfig
	err := envconfig.Process("", &rCfg)
	if err != nil {
		return nil, err
	}
	return &rCfg, nil
}

func (r *RelayConfig) GetServerAddr() string {
	return r.BindAddress + ":" + r.Port
}

// IsAllowedOrigin reports whether origin exactly matches an allow-list entry.
func (r *RelayConfig) IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range r.AllowedOrigins {
		a = strings.TrimSpace(a)
		if a != "" && a == origin {
			return true
		}
	}
	return false
}
