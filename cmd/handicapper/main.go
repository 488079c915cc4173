// Package main provides the handicapper CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-handicapper/internal/advisory"
	"github.com/yourusername/clever-handicapper/internal/cache"
	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/health"
	"github.com/yourusername/clever-handicapper/internal/logger"
	"github.com/yourusername/clever-handicapper/internal/metrics"
	"github.com/yourusername/clever-handicapper/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// maxCachedResults bounds the in-process result cache
const maxCachedResults = 1024

// app carries flags and the dependencies built from them
type app struct {
	configPath   string
	profileFiles []string
	profileName  string
	logLevel     string
	format       string
	linger       bool

	out         io.Writer
	cfg         *config.Config
	log         *logrus.Logger
	handicapper *service.Handicapper
	ops         *health.Server
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "handicapper",
		Short:         "Score, price and rank wagers for a horse race",
		Long:          `Reads race snapshots (JSON), scores every horse, estimates win probabilities against the odds and ranks wagers.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialise: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.wait(cmd.Context())
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "./config/config.yaml", "Path to configuration file")
	flags.StringArrayVar(&a.profileFiles, "profile-file", nil, "Additional tuning profile YAML (repeatable)")
	flags.StringVarP(&a.profileName, "profile", "p", "", "Profile to run (default: the configured profile)")
	flags.StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	flags.StringVarP(&a.format, "output", "o", "table", "Output format: table or json")
	flags.BoolVar(&a.linger, "linger", false, "Keep the metrics server up after the command until interrupted")

	root.AddCommand(
		newScoreCmd(a),
		newRecommendCmd(a),
		newExoticCmd(a),
		newValidateCmd(a),
		newProfilesCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	if a.format != "table" && a.format != "json" {
		return fmt.Errorf("unsupported output format %q", a.format)
	}

	cfg, err := config.LoadWithDefaults(a.configPath)
	if err != nil {
		return err
	}
	if err := config.ReloadFromEnv(cfg); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.log = logger.NewLogger(cfg.App.LogLevel)
	a.log.SetOutput(os.Stderr)

	profiles := []config.Profile{cfg.Profile}
	for _, path := range a.profileFiles {
		p, err := config.LoadProfile(path)
		if err != nil {
			return err
		}
		profiles = append(profiles, p)
	}

	advisor, err := advisory.New(cfg.Advisory, a.log)
	if err != nil {
		return err
	}

	opts := service.Options{
		Advisor:       advisor,
		Logger:        a.log,
		RecordMetrics: cfg.Metrics.Enabled,
	}
	if cfg.Cache.Enabled {
		opts.Cache = cache.NewResultCache(
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			time.Duration(cfg.Cache.CleanupIntervalSeconds)*time.Second,
			maxCachedResults,
		)
	}

	a.handicapper, err = service.NewHandicapper(profiles, opts)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		return a.startOps(ctx, advisor)
	}
	return nil
}

func (a *app) startOps(ctx context.Context, advisor advisory.Advisor) error {
	metrics.InitRegistry()

	checks := map[string]health.Pinger{
		"profiles": health.PingFunc(func(context.Context) error {
			if len(a.handicapper.Profiles()) == 0 {
				return fmt.Errorf("no profiles loaded")
			}
			return nil
		}),
	}
	if pinger, ok := advisor.(health.Pinger); ok {
		checks["advisory"] = pinger
	}

	a.ops = health.NewServer(health.Config{
		ServiceName:    a.cfg.App.Name,
		Version:        Version,
		Addr:           fmt.Sprintf(":%d", a.cfg.Metrics.Port),
		MetricsPath:    a.cfg.Metrics.Path,
		MetricsHandler: metrics.Handler(),
		Checks:         checks,
		Logger:         a.log,
	})
	if err := a.ops.Start(ctx); err != nil {
		return err
	}
	a.ops.SetReady(true)
	return nil
}

// wait holds the process open for scraping when --linger is set
func (a *app) wait(ctx context.Context) error {
	if a.ops == nil {
		return nil
	}
	if a.linger {
		a.log.WithField("addr", a.ops.Addr()).Info("Serving metrics until interrupted")
		<-ctx.Done()
	}
	return a.ops.Shutdown()
}
