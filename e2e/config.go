package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_RELAY_ADDR points at a running relay; the suite is skipped when empty
	RelayAddr string `envconfig:"CHAT_RELAY_ADDR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_FRAME_TIMEOUT bounds each wait for an expected frame
	FrameTimeout time.Duration `envconfig:"E2E_FRAME_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
