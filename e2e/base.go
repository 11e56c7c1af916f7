package e2e

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// BaseStreamerSuite talks to a running streamer, every test is skipped when STREAMER_ADDR is unset.
type BaseStreamerSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseStreamerSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.StreamerAddr == "" {
		s.T().Skip("STREAMER_ADDR is not set")
	}
}

func (s *BaseStreamerSuite) BaseURL() string {
	addr := strings.TrimSuffix(s.Config.StreamerAddr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

func (s *BaseStreamerSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// loggingTransport logs every request with its status and duration.
type loggingTransport struct {
	t            *testing.T
	debugHeaders bool
}

func (l loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		l.t.Logf("HTTP %s %s [%v] in %v", req.Method, req.URL.Path, err, time.Since(start))
		return nil, err
	}

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s Range=%q [%d] in %v",
		req.Method, req.URL.Path, req.Header.Get("Range"), resp.StatusCode, time.Since(start))
	if l.debugHeaders {
		keys := make([]string, 0, len(resp.Header))
		for k := range resp.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&logBuilder, "\n  %s: %s", k, strings.Join(resp.Header[k], ", "))
		}
	}
	l.t.Log(logBuilder.String())
	return resp, nil
}

// WithHTTP provides a logging HTTP client within a contextual test step
func (s *BaseStreamerSuite) WithHTTP(name string, fn func(ctx context.Context, client *http.Client)) {
	s.header(s.T(), name)
	client := &http.Client{Transport: loggingTransport{t: s.T(), debugHeaders: s.Config.DebugHeaders}}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fn(ctx, client)
}

// WithHealth provides a gRPC health client within a contextual test step
func (s *BaseStreamerSuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.GrpcAddr == "" {
		s.T().Skip("GRPC_ADDR is not set")
	}
	s.header(s.T(), name)

	conn, err := grpc.NewClient(s.Config.GrpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)
			s.T().Logf("GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GrpcAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fn(ctx, healthpb.NewHealthClient(conn))
}
