package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	StreamerAddr string `envconfig:"STREAMER_ADDR"`
	// GRPC_ADDR is the health endpoint, the health step is skipped without it
	GrpcAddr string `envconfig:"GRPC_ADDR"`
	// STREAM_TOKEN is sent as a bearer token when the server guards its streams
	Token string `envconfig:"STREAM_TOKEN"`
	// E2E_DEBUG_HEADERS dumps the response headers of every ranged request
	DebugHeaders bool `envconfig:"E2E_DEBUG_HEADERS" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
