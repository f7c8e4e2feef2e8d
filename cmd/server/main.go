package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/phaseboard/internal/app"
	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/config"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/mcp"
	"github.com/rpggio/phaseboard/internal/sqlite"
	"github.com/rpggio/phaseboard/internal/transport"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps holds what every subcommand needs once config is loaded.
type deps struct {
	cfg    config.Config
	policy *phase.Policy
	logger *slog.Logger
	db     *sqlite.DB
	closer func()
}

func setup() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, closeLog := newLogger(cfg)
	rt := &deps{cfg: cfg, policy: policy, logger: logger, closer: closeLog}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		rt.close()
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.db = db
	if err := db.Migrate(); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (rt *deps) close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
	if rt.closer != nil {
		rt.closer()
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "phaseboard",
		Short:         "Project lifecycle phases for the production portal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newRecomputeCmd(), newAPIKeyCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC and MCP over HTTP, or MCP over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			services := app.NewServices(rt.db, rt.policy, rt.logger)
			handler := services.Handler()
			defaultPrincipal := auth.Principal{
				TenantID: rt.cfg.Auth.DefaultTenant,
				UserID:   rt.cfg.Auth.DefaultUser,
				Role:     phase.Role(rt.cfg.Auth.DefaultRole),
			}

			mcpServer := mcp.NewServer(mcp.Config{
				Handler:          handler,
				Resolver:         services.APIKeys,
				AuthEnabled:      rt.cfg.Auth.Enabled,
				DefaultPrincipal: defaultPrincipal,
				TransportMode:    rt.cfg.Transport.Mode,
				Policy:           rt.policy,
				Version:          version,
				Logger:           rt.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if rt.cfg.Transport.Mode == "stdio" {
				return runStdioMode(ctx, rt.logger, mcpServer)
			}

			authMiddleware := transport.StaticPrincipalMiddleware(defaultPrincipal)
			if rt.cfg.Auth.Enabled {
				authMiddleware = transport.AuthMiddleware(services.APIKeys)
			}
			mcpHandler := sdkmcp.NewStreamableHTTPHandler(
				func(*http.Request) *sdkmcp.Server { return mcpServer },
				&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
			)
			router := transport.NewServer(handler, transport.Options{
				Auth:   authMiddleware,
				MCP:    mcpHandler,
				Logger: rt.logger,
			})
			return runHTTPMode(ctx, rt.logger, router, rt.cfg.Server.Host, rt.cfg.Server.Port)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			v, err := rt.db.SchemaVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}

func newRecomputeCmd() *cobra.Command {
	var tenantID string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute the derived phase of every active project of a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			if concurrency <= 0 {
				concurrency = rt.cfg.Recompute.Concurrency
			}
			services := app.NewServices(rt.db, rt.policy, rt.logger)
			report, err := services.Projects.RecomputeAll(cmd.Context(), tenantID, concurrency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recomputed %d projects, %d changed\n", report.Projects, report.Changed)
			for id, reason := range report.Failed {
				fmt.Fprintf(out, "  failed %s: %s\n", id, reason)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d projects failed to recompute", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant to recompute")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel recomputes (default from config)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newAPIKeyCmd() *cobra.Command {
	apikey := &cobra.Command{
		Use:   "apikey",
		Short: "Manage bearer tokens",
	}

	var tenantID, userID, role, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a bearer token and print it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := phase.ParseRole(role)
			if err != nil {
				return err
			}
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			token, err := sqlite.NewAPIKeyRepository(rt.db).Generate(cmd.Context(), sqlite.APIKey{
				TenantID:    tenantID,
				UserID:      userID,
				Role:        parsed,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	create.Flags().StringVar(&tenantID, "tenant", "", "tenant the token acts for")
	create.Flags().StringVar(&userID, "user", "", "user recorded as the actor")
	create.Flags().StringVar(&role, "role", string(phase.RoleClientViewer), "client_viewer, client_admin or staff")
	create.Flags().StringVar(&description, "description", "", "note shown when listing keys")
	_ = create.MarkFlagRequired("tenant")
	_ = create.MarkFlagRequired("user")

	apikey.AddCommand(create)
	return apikey
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")
	// Run blocks until stdin closes or the context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, router http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) (*slog.Logger, func()) {
	// stdout carries JSON-RPC in stdio mode
	var writer io.Writer = os.Stdout
	if cfg.Transport.Mode == "stdio" {
		writer = os.Stderr
	}
	closer := func() {}
	if cfg.Log.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Log.Path,
			MaxSize:    6, // megabytes
			MaxBackups: 3,
			MaxAge:     28,
		}
		writer = file
		closer = func() { _ = file.Close() }
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}
	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	}
	return slog.New(handler), closer
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
