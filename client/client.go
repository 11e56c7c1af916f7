package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"stream-lab/auth"
	"stream-lab/downloader"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress     string        `env:"STREAMER_ADDR,default=http://localhost:3000"`
	Resource          string        `env:"STREAM_RESOURCE,default=video"`
	Output            string        `env:"STREAM_OUTPUT,required=true"`
	Token             string        `env:"STREAM_TOKEN"`
	AuthSecret        string        `env:"AUTH_SECRET"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=1h"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run downloads one resource chunk by chunk and prints its checksum.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	token := config.Token
	if token == "" && config.AuthSecret != "" {
		generated, err := auth.GenerateToken([]byte(config.AuthSecret), "stream-client",
			[]string{config.Resource}, config.AuthTokenDuration)
		if err != nil {
			return exitConfig, fmt.Errorf("token generation failed: %w", err)
		}
		token = generated
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := os.Create(config.Output)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not create %s: %w", config.Output, err)
	}
	defer func() { _ = out.Close() }()

	fetcher := downloader.NewFetcher(log, &http.Client{Timeout: config.RequestTimeout}, config.ServerAddress, token)
	start := time.Now()
	log.Info("Downloading", "url", fetcher.ResourceURL(config.Resource), "output", config.Output)

	result, err := fetcher.Fetch(ctx, config.Resource, out)
	if err != nil {
		return exitRuntime, fmt.Errorf("download of %s failed: %w", config.Resource, err)
	}

	log.Info("Download complete",
		"resource", config.Resource,
		"bytes", result.Size,
		"chunks", result.Chunks,
		"sha256", result.Sha256,
		"duration", time.Since(start))
	return exitOK, nil
}
