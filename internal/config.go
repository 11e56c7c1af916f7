package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT,default=3000" validate:"min=1,max=65535"`
	VideoFilepath        string        `env:"VIDEO_FILEPATH,required=true" validate:"required"`
	MediaRoot            string        `env:"MEDIA_ROOT"`
	ChunkSize            int64         `env:"CHUNK_SIZE,default=1000000" validate:"gt=0,max=1073741824"`
	LogLevel             string        `env:"LOG_LEVEL,required=true" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256" validate:"gt=0"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=16" validate:"gte=0"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s" validate:"gt=0"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	LatencyThreshold     time.Duration `env:"LATENCY_THRESHOLD,default=2s" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	RescanInterval       time.Duration `env:"RESCAN_INTERVAL,default=1m" validate:"gte=0"`
	LimitStreams         *int          `env:"LIMIT_STREAMS" validate:"omitempty,gt=0,max=1000"`
	DebugPort            int           `env:"DEBUG_PORT,default=8081" validate:"min=1,max=65535"`
	GrpcPort             int           `env:"GRPC_PORT" validate:"omitempty,min=1,max=65535"`
	AuthSecret           string        `env:"AUTH_SECRET" validate:"omitempty,min=32"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// Validate checks the ranges the environment parser cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.BlugeFilepath == "" && c.MediaRoot != "" {
		return fmt.Errorf("invalid config: BLUGE_FILEPATH is required along MEDIA_ROOT")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) CatalogEnabled() bool {
	return c.MediaRoot != ""
}
