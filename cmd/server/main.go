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

	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"zippty/order-service/internal/conf"
	httpapi "zippty/order-service/internal/controllers/http"
)

const versionTimeFormat = "20060102150405"

var (
	// Name and Version are set with -ldflags at build time.
	Name    = "order-service"
	Version = "dev"

	flagconf string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           Name,
		Short:         "zippty order lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "configs/config.yaml", "config path")
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		createMigrationCommand(),
		tokenCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*conf.Bootstrap, error) {
	c, err := conf.Load(flagconf)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func newLogger(c conf.Log) log.Logger {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", Name,
		"service.version", Version,
	)
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(c.Level)))
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(c.Log)
			helper := log.NewHelper(log.With(logger, "module", "main"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router, cleanup, err := newApp(ctx, c, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := &http.Server{
				Addr:         c.Server.Addr,
				Handler:      router,
				ReadTimeout:  c.Server.ReadTimeout,
				WriteTimeout: c.Server.WriteTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				helper.Infof("starting order service on %s", c.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				helper.Info("shutting down")
				sctx, cancel := context.WithTimeout(context.Background(), c.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(sctx)
			})
			return g.Wait()
		},
	}
}

func migrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate the mysql schema all the way up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := conf.Load(flagconf)
			if err != nil {
				return err
			}
			m, err := migrate.New(
				fmt.Sprintf("file://%s", dir),
				fmt.Sprintf("mysql://%s&multiStatements=true", c.Database.MySQL.DSN()),
			)
			if err != nil {
				return err
			}
			defer m.Close()

			err = m.Up()
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("No change in migration")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("Migrated up")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "migration directory")
	return cmd
}

func createMigrationCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create empty up and down sql migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := time.Now().Format(versionTimeFormat)
			up := fmt.Sprintf("%s/%s_%s.up.sql", dir, version, args[0])
			down := fmt.Sprintf("%s/%s_%s.down.sql", dir, version, args[0])

			if err := os.WriteFile(up, []byte{}, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0o644); err != nil {
				return err
			}
			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "migration directory")
	return cmd
}

// tokenCommand mints a bearer token for local testing against the configured secret.
func tokenCommand() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			tok, err := httpapi.IssueToken([]byte(c.Auth.JWTSecret), userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", "", "role, e.g. admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
