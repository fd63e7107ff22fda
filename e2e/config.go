package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL points at a running server. The suites skip when unset.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	GRPCAddr  string `envconfig:"E2E_GRPC_ADDR" default:"localhost:5001"`
	// E2E_DEBUG_JSON dumps full request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// Must match the server's INACTIVITY_TIMEOUT + SWEEP_INTERVAL
	EvictionWait time.Duration `envconfig:"E2E_EVICTION_WAIT" default:"30s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
