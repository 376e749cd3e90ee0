package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vidfriends/client/internal/handlers"
	"github.com/vidfriends/client/internal/httpserver"
)

// serveMock runs the local stand-in for the VidFriends API until ctx is
// cancelled or the process receives SIGINT/SIGTERM.
func (c *cli) serveMock(ctx context.Context, args []string) error {
	mockCfg := c.cfg.Mock

	fs := c.flags("mock-server")
	fs.IntVar(&mockCfg.Port, "port", mockCfg.Port, "port to listen on, 0 picks a free one")
	fs.StringVar(&mockCfg.DemoEmail, "demo-email", mockCfg.DemoEmail, "seed an account with this email")
	fs.StringVar(&mockCfg.DemoPassword, "demo-password", mockCfg.DemoPassword, "password for the seeded account")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	logger := c.logger.With("component", "mock-server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildMockDependencies(ctx, mockCfg, logger, reg)
	if err != nil {
		return err
	}

	srv := httpserver.New(mockCfg.Port, handlers.NewRouter(deps))
	if err := srv.Listen(); err != nil {
		return err
	}

	logger.Info("starting http server", "addr", srv.Addr())
	fmt.Fprintf(c.stdout, "mock API listening on %s\n", srv.Addr())

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-srvErr
}

func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
