// Package main provides careclient, a command line client for the care portal
// API. The signed-in identity and the refresh cookie are kept in the state
// directory, so each invocation resumes the previous session.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jrsteele09/care-portal/apiclient"
	"github.com/jrsteele09/care-portal/internal/config"
	"github.com/jrsteele09/care-portal/internal/cookiestore"
	"github.com/jrsteele09/care-portal/internal/logging"
	"github.com/jrsteele09/care-portal/internal/redisclient"
	"github.com/jrsteele09/care-portal/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "careclient"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(&app{out: os.Stdout}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every command: configuration, the session store
// and the API client built on top of it.
type app struct {
	configPath  string
	baseURL     string
	showMetrics bool

	out      io.Writer
	cfg      *config.ClientConfig
	logger   zerolog.Logger
	store    *sessions.Store
	jar      *cookiestore.Jar
	client   *apiclient.Client
	registry *prometheus.Registry
	redis    *redisclient.Client
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Command line client for the care portal API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultClientConfigPath(), "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API root, overrides the config file")
	cmd.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "Print client metrics to stderr when done")

	cmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		profileCmd(a),
		listCmd(a),
		getCmd(a),
		createCmd(a),
		updateCmd(a),
		deleteCmd(a),
		dashboardCmd(a),
		usersCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			PersistentPreRunE: func(*cobra.Command, []string) error {
				return nil
			},
			Run: func(*cobra.Command, []string) {
				fmt.Fprintf(a.out, "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.LoadClientConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = logging.Setup(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	var persister sessions.Persister = sessions.NewFilePersister(cfg.StateDir)
	if cfg.RedisURL != "" {
		a.redis, err = redisclient.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		persister = sessions.NewRedisPersister(a.redis)
	}
	a.store = sessions.NewStore(sessions.WithPersister(persister), sessions.WithLogger(a.logger))

	a.jar, err = cookiestore.Open(cfg.StateDir, cookiestore.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.client, err = apiclient.New(cfg.BaseURL, a.store,
		apiclient.WithHTTPClient(&http.Client{Jar: a.jar, Timeout: cfg.RequestTimeout}),
		apiclient.WithRefreshTimeout(cfg.RefreshTimeout),
		apiclient.WithLogger(a.logger),
		apiclient.WithMetrics(apiclient.NewMetrics(a.registry)),
		apiclient.WithUserAgent(appName+"/"+Version),
		apiclient.WithSessionListener(apiclient.SessionListenerFunc(a.sessionEnded)),
	)
	return err
}

func (a *app) close() {
	if a.showMetrics && a.registry != nil {
		a.printMetrics(os.Stderr)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// sessionEnded runs once when a refresh fails. The stored cookie is useless
// from then on.
func (a *app) sessionEnded(reason error) {
	a.logger.Warn().Err(reason).Msg("session ended, run `careclient login` again")
	if err := a.jar.Clear(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to clear cookie jar")
	}
}

// resume restores the previous session, refreshing the access token through
// the stored cookie.
func (a *app) resume(ctx context.Context) error {
	ok, err := a.client.Resume(ctx)
	if err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	if !ok {
		return fmt.Errorf("not logged in, run `%s login`", appName)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printMetrics(w io.Writer) {
	families, err := a.registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s%s count=%d sum=%g\n", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}
