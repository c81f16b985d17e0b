package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go-simpler.org/env"

	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/adapter/metrics"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/envloader"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/platform/config"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/platform/logging"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/platform/retry"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/platform/version"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/smoke"
)

// app is shared by all subcommands and filled in by the root PersistentPreRunE.
type app struct {
	source env.Source // nil means the process environment

	envFiles  []string
	logLevel  string
	logFormat string

	loader *envloader.Loader
	cfg    *config.Config
}

func newRootCmd(source env.Source) *cobra.Command {
	a := &app{source: source}

	root := &cobra.Command{
		Use:           "envcheck",
		Short:         "Load and verify the parking garage test environment",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{envloader.DefaultEnvFile}, "dotenv file(s) to load, repeatable")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "override LOG_FORMAT (text, json)")

	root.AddCommand(a.showCmd(), a.checkCmd(), a.smokeCmd(), versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	opts := []envloader.Option{envloader.WithEnvFiles(a.envFiles...)}
	if a.source != nil {
		opts = append(opts, envloader.WithSource(a.source))
	}
	a.loader = envloader.New(opts...)

	cfg, err := config.Load(config.WithOverrides(a.loader.Source(), map[string]string{
		"LOG_LEVEL":  a.logLevel,
		"LOG_FORMAT": a.logFormat,
	}))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

// snapshot resolves the environment and records the number of missing keys.
func (a *app) snapshot(cfgMetrics *metrics.ConfigMetrics) (envloader.Snapshot, error) {
	snap, err := a.loader.EnvironmentVariables()

	var cfgErr *envloader.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		if cfgMetrics != nil {
			cfgMetrics.MissingKeys.Set(float64(len(cfgErr.Missing)))
		}
		slog.Error("Test environment incomplete", "missing", cfgErr.Missing)
		return nil, err
	case err != nil:
		return nil, err
	}

	if cfgMetrics != nil {
		cfgMetrics.MissingKeys.Set(0)
	}
	slog.Debug("Test environment loaded", "env", snap)
	return snap, nil
}

func (a *app) showCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved environment with the password masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(nil)
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), snap.Redacted(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or env")
	return cmd
}

func writeSnapshot(w io.Writer, snap envloader.Snapshot, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "env":
		for _, k := range envloader.Keys {
			if _, err := fmt.Fprintf(w, "%s=%s\n", k, snap[k]); err != nil {
				return err
			}
		}
		return nil
	case "text":
		for _, k := range envloader.Keys {
			if _, err := fmt.Fprintf(w, "%-14s %s\n", k+":", snap[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or env)", format)
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that every required variable is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := metrics.NewRegistry()
			_, err := a.snapshot(metrics.NewConfigMetrics(reg))
			if werr := a.writeMetrics(reg); werr != nil {
				slog.Error("Failed to write metrics", "error", werr)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
}

func (a *app) smokeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check that the configured deployment accepts the valid login and rejects the invalid one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			reg := metrics.NewRegistry()
			defer func() {
				if err := a.writeMetrics(reg); err != nil {
					slog.Error("Failed to write metrics", "error", err)
				}
			}()

			snap, err := a.snapshot(metrics.NewConfigMetrics(reg))
			if err != nil {
				return err
			}

			prober, err := smoke.NewProber(snap, smoke.Options{
				APIURL:    a.cfg.BaseAPIURL(snap.URL()),
				LoginPath: a.cfg.LoginPath,
				Timeout:   a.cfg.ProbeTimeout,
				Retries:   a.cfg.ProbeRetries,
				Ready: retry.Policy{
					MaxAttempts:      a.cfg.ReadyAttempts,
					InitialBackoff:   a.cfg.ReadyBackoff,
					RateLimitBackoff: 4 * a.cfg.ReadyBackoff,
					MaxBackoff:       30 * time.Second,
				},
				Observer: metrics.NewProbeMetrics(reg),
			})
			if err != nil {
				return err
			}

			report := prober.Run(cmd.Context())
			if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			return report.Err()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	return cmd
}

func writeReport(w io.Writer, r smoke.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", r.RunID)
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %-4s %-14s status=%d duration=%s\n", status, res.Probe, res.StatusCode, res.Duration.Round(time.Millisecond))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (a *app) writeMetrics(reg *prometheus.Registry) error {
	if a.cfg == nil || a.cfg.MetricsTextfile == "" {
		return nil
	}
	return metrics.WriteTextfile(a.cfg.MetricsTextfile, reg)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// skip environment loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return err
		},
	}
}
