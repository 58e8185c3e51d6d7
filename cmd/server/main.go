package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/mcp-token-proxy/auth"
	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/jrsteele09/mcp-token-proxy/internal/config"
	"github.com/jrsteele09/mcp-token-proxy/internal/logging"
	"github.com/jrsteele09/mcp-token-proxy/server"
	"github.com/jrsteele09/mcp-token-proxy/store"
	"github.com/jrsteele09/mcp-token-proxy/token"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:    "mcp-token-proxy",
		Usage:   "OAuth token endpoint issuing opaque proxy tokens for MCP clients",
		Version: versioninfo.Short(),
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			registerClientCommand,
			cleanupCommand,
		},
		Action: serve,
	}

	app.RunAndExitOnError()
}

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "run the token endpoint (default)",
	Action: serve,
}

// deps bundles what every command needs
type deps struct {
	config config.Config
	logger zerolog.Logger
	db     *gorm.DB
}

func newApp() (*deps, error) {
	c := config.New()
	logger := logging.New(c.GetLogLevel(), c.GetEnv())

	db, err := store.Open(store.Config{Driver: c.GetDBDriver(), DSN: c.GetDBDSN()}, logger)
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	return &deps{config: c, logger: logger, db: db}, nil
}

func (a *deps) close() {
	if err := store.Close(a.db); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close database")
	}
}

func (a *deps) tokenService(inst *instrumentation.Instrumentation) (*auth.TokenService, error) {
	return auth.NewTokenService(auth.Repos{
		Clients:  store.NewClientRepo(a.db),
		Sessions: store.NewSessionRepo(a.db),
		Tokens:   store.NewTokenRepo(a.db),
	},
		auth.WithLogger(a.logger),
		auth.WithInstrumentation(inst),
		auth.WithIssuer(token.NewIssuer(token.WithLifetime(a.config.GetTokenLifetime()))),
	)
}

func (a *deps) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func serve(_ *cli.Context) (returnError error) {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	if err := store.Migrate(a.db); err != nil {
		return fmt.Errorf("store.Migrate: %w", err)
	}

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName:    a.config.GetAppName(),
		ServiceVersion: a.config.GetServiceVersion(),
		Enabled:        a.config.GetMetricsEnabled(),
	})
	if err != nil {
		return fmt.Errorf("instrumentation.New: %w", err)
	}

	tokenService, err := a.tokenService(inst)
	if err != nil {
		return err
	}

	handler, err := server.New(a.config, tokenService,
		server.WithLogger(a.logger),
		server.WithInstrumentation(inst),
		server.WithHealthCheck(a.ping),
	)
	if err != nil {
		return err
	}
	defer handler.Close()

	displayAppname(a.config.GetAppName())
	httpServer := &http.Server{
		Addr:              a.config.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(a.logger, httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}

	returnError = shutdown(httpServer, inst)
	a.logger.Info().Msg("Server stopped")
	return returnError
}

func listenAndServe(logger zerolog.Logger, server *http.Server) error {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server, inst *instrumentation.Instrumentation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	if err := inst.Shutdown(ctx); err != nil {
		return fmt.Errorf("instrumentation.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
