package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/internal/profile"
	"github.com/hrygo/erpdesk/plugin/approval"
	"github.com/hrygo/erpdesk/plugin/cache"
	"github.com/hrygo/erpdesk/server"
	apiv1 "github.com/hrygo/erpdesk/server/router/api/v1"
	"github.com/hrygo/erpdesk/store"
	"github.com/hrygo/erpdesk/store/db"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 15 * time.Second
)

var (
	rootCmd = &cobra.Command{
		Use:   "erpdesk",
		Short: "Routes ERP chat requests to domain agents behind an approval gate.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			s, err := openStore(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer s.Close()
			slog.Info("migrations applied", slog.String("driver", p.Driver))
			return nil
		},
	}

	decideCmd = &cobra.Command{
		Use:   "decide <id> <approved|rejected>",
		Short: "Approve or reject a pending approval request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return errors.Wrapf(err, "invalid approval id %q", args[0])
			}
			decidedBy := viper.GetString("by")
			if decidedBy == "" {
				return errors.New("--by is required")
			}

			p, err := loadProfile()
			if err != nil {
				return err
			}
			s, err := openStore(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer s.Close()

			gate := approval.NewGate(s, nil, observability.GlobalMetrics())
			a, err := gate.Decide(cmd.Context(), int32(id), args[1], decidedBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approval #%d %s by %s\n", a.ID, a.Status, decidedBy)
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("policy-file", "", "YAML file overriding approval thresholds")
	decideCmd.Flags().String("by", "", "name recorded as the decider")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "policy-file"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("by", decideCmd.Flags().Lookup("by")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("erpdesk")
	viper.AutomaticEnv()
	if err := viper.BindEnv("policy-file", "ERPDESK_POLICY_FILE"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, decideCmd)
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{}
	p.FromEnv()
	p.Mode = viper.GetString("mode")
	p.Addr = viper.GetString("addr")
	p.Port = viper.GetInt("port")
	p.Data = viper.GetString("data")
	p.Driver = viper.GetString("driver")
	p.DSN = viper.GetString("dsn")
	p.PolicyFile = viper.GetString("policy-file")
	p.Version = version

	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	setupLogger(p)
	return p, nil
}

func setupLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.Mode == "prod" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

// openStore opens the driver and migrates the schema; demo mode also seeds sample data.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return s, nil
}

func runServe(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, redisCache, err := startDependencies(ctx, p)
	if err != nil {
		return err
	}
	defer s.Close()

	localCache := cache.NewService(cache.DefaultServiceConfig())
	defer localCache.Close()
	var conversationCache cache.CacheService = localCache
	if redisCache != nil {
		defer redisCache.Close()
		conversationCache = cache.NewTieredCache(localCache, redisCache)
	}

	policy := approval.DefaultPolicy()
	if p.PolicyFile != "" {
		policy, err = approval.LoadPolicyFile(p.PolicyFile)
		if err != nil {
			return errors.Wrap(err, "failed to load policy file")
		}
	}

	metrics := observability.GlobalMetrics()
	services := apiv1.NewServices(s, conversationCache, policy, metrics)

	if p.PolicyFile != "" {
		watcher, err := approval.NewPolicyWatcher(p.PolicyFile, services.Gate.SetPolicy)
		if err != nil {
			return errors.Wrap(err, "failed to watch policy file")
		}
		if err := watcher.Start(ctx); err != nil {
			return errors.Wrap(err, "failed to watch policy file")
		}
		defer watcher.Stop()
	}

	srv := server.NewServer(p, s, services)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down", slog.String("reason", context.Cause(ctx).Error()))
	return srv.Shutdown(ctx, shutdownTimeout)
}

// startDependencies opens the store and, when configured, connects to Redis concurrently.
func startDependencies(ctx context.Context, p *profile.Profile) (*store.Store, *cache.RedisCache, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	var (
		s          *store.Store
		redisCache *cache.RedisCache
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s, err = openStore(gctx, p)
		return err
	})
	if p.IsRedisEnabled() {
		g.Go(func() error {
			var err error
			redisCache, err = cache.NewRedisCache(gctx, cache.RedisConfig{
				Addr:     p.RedisAddr,
				Password: p.RedisPassword,
				DB:       p.RedisDB,
			})
			return errors.Wrap(err, "failed to connect to redis")
		})
	}
	if err := g.Wait(); err != nil {
		if s != nil {
			s.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		return nil, nil, err
	}
	return s, redisCache, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("erpdesk failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
