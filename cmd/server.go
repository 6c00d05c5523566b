// Server = minter + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TEENet-io/mintwrap-go/reporter"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type ServerConfig struct {
	Minter *MinterConfig

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// Server holds the objects that make up the mint server.
type Server struct {
	MyMinter   *Minter
	MyReporter *reporter.HttpReporter
	Registry   *prometheus.Registry
}

func NewServer(sc *ServerConfig) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	myMinter, err := NewMinter(sc.Minter, nil, registry)
	if err != nil {
		logger.Errorf("failed to create minter: %v", err)
		return nil, err
	}

	return newServer(sc, myMinter, registry), nil
}

func newServer(sc *ServerConfig, myMinter *Minter, registry *prometheus.Registry) *Server {
	return &Server{
		MyMinter:   myMinter,
		MyReporter: reporter.NewHttpReporter(sc.HttpIp, sc.HttpPort, myMinter, registry),
		Registry:   registry,
	}
}

// Run serves http until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.MyMinter.Close()

	address := s.MyReporter.Address()
	srv := &http.Server{
		Addr:              address,
		Handler:           s.MyReporter.SetupRouter(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("address", address).Info("http reporter listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// StartServerAndWait blocks until the server fails or a signal is received.
func StartServerAndWait(sc *ServerConfig) error {
	s, err := NewServer(sc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = s.Run(ctx)
	logger.Info("server stopped")
	return err
}
