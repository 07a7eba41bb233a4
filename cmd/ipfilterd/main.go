// Command ipfilterd is an IP-filtering reverse proxy.
//
// The filter is configured from a YAML file (-config) or IPFILTER_*
// environment variables; see package config. IPFILTERD_LISTEN sets the listen
// address (default :8080) and IPFILTERD_UPSTREAM the proxied origin. Without
// an upstream, permitted requests get a plain "ok".
//
// SIGHUP reloads the configuration and swaps the filter in place. A
// configuration that fails to load leaves the running filter untouched.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abczzz13/ipfilter"
	"github.com/abczzz13/ipfilter/config"
	ipfilterprom "github.com/abczzz13/ipfilter/prometheus"
)

const shutdownTimeout = 10 * time.Second

type daemonConfig struct {
	Listen   string `env:"IPFILTERD_LISTEN" envDefault:":8080"`
	Upstream string `env:"IPFILTERD_UPSTREAM"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("ipfilterd", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML configuration file (default: IPFILTER_* environment)")
	check := flags.String("check", "", "comma-separated addresses to evaluate against the configuration, then exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewJSONHandler(stderr, nil))
	slog.SetDefault(logger)

	registry := prom.NewRegistry()
	loader := &filterLoader{path: *configPath, registry: registry}

	filter, err := loader.load()
	if err != nil {
		logger.Error("load filter", "error", err)
		return 1
	}

	if *check != "" {
		printChecks(stdout, filter, strings.Split(*check, ","))
		return 0
	}

	var dcfg daemonConfig
	if err := env.Parse(&dcfg); err != nil {
		logger.Error("parse environment", "error", err)
		return 1
	}

	upstream, err := upstreamHandler(dcfg.Upstream)
	if err != nil {
		logger.Error("invalid upstream", "error", err)
		return 1
	}

	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	filters := ipfilter.NewSwitch(filter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reloadOnHangup(ctx, loader, filters, logger)

	srv := &http.Server{
		Addr:              dcfg.Listen,
		Handler:           newRouter(filters, metricsHandler(registry), upstream),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			"addr", dcfg.Listen,
			"upstream", dcfg.Upstream,
			"mode", filter.Mode().String(),
			"rules", filter.Rules().Len(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			return 1
		}
	}

	logger.Info("stopped")
	return 0
}

// filterLoader builds filters from the configured source. Every filter it
// builds shares the same metrics registry.
type filterLoader struct {
	path     string
	registry prom.Registerer
}

func (l *filterLoader) load() (*ipfilter.Filter, error) {
	cfg, err := l.config()
	if err != nil {
		return nil, err
	}

	return cfg.NewFilter(ipfilterprom.WithRegisterer(l.registry))
}

func (l *filterLoader) config() (*config.Config, error) {
	if l.path == "" {
		return config.FromEnv()
	}
	return config.ReadFile(l.path)
}

func reloadOnHangup(ctx context.Context, loader *filterLoader, filters *ipfilter.Switch, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reload(loader, filters); err != nil {
				logger.Error("reload failed, keeping current filter", "error", err)
				continue
			}
			current := filters.Load()
			logger.Info("filter reloaded", "mode", current.Mode().String(), "rules", current.Rules().Len())
		}
	}
}

func reload(loader *filterLoader, filters *ipfilter.Switch) error {
	filter, err := loader.load()
	if err != nil {
		return err
	}

	_, err = filters.Store(filter)
	return err
}

func printChecks(w io.Writer, filter *ipfilter.Filter, addrs []string) {
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		d := filter.Evaluate("", addr)
		rule := "-"
		if d.Matched {
			rule = d.Rule.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", addr, d.Verdict, d.Reason, rule)
	}
}
