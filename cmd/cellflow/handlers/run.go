package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/cellflow/internal/logging"
	"github.com/imamik/cellflow/internal/metrics"
	"github.com/imamik/cellflow/internal/ops"
	"github.com/imamik/cellflow/internal/util/async"
	"github.com/imamik/cellflow/internal/util/retry"
)

// startupRetries bounds the connectivity checks made before the loop starts.
var startupRetries = 2

// Run loads the config, checks connectivity and runs the scan loop and the
// ops server until SIGINT or SIGTERM.
func Run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireSecrets(); err != nil {
		return fmt.Errorf("missing credentials: %w", err)
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		ErrorLog: cfg.State.ErrorLog,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logr.NewContext(ctx, logger)

	a, err := buildApp(cfg)
	if err != nil {
		logger.Error(err, "startup failed")
		return err
	}

	if err := startupChecks(ctx, a); err != nil {
		logger.Error(err, "startup failed")
		return err
	}

	return serve(ctx, a)
}

// serve runs the loop and, when enabled, the ops server side by side.
func serve(ctx context.Context, a *app) error {
	tasks := []async.Task{{Name: "scan loop", Func: a.loop.Run}}

	if listen := a.cfg.OpsListen(); listen != "" {
		srv := ops.NewServer(listen, ops.NewRouter(a.loop, a.ledger, metrics.Registry))
		tasks = append(tasks, async.Task{Name: "ops server", Func: srv.Run})
	}

	return async.RunParallel(ctx, tasks)
}

// startupChecks probes the backend and every routed device controller. An
// unreachable backend is only logged since the loop retries it every scan.
// A device controller that still fails after backoff is returned as an error.
func startupChecks(ctx context.Context, a *app) error {
	logger := logr.FromContextOrDiscard(ctx)

	err := retry.WithExponentialBackoff(ctx, func(ctx context.Context) error {
		user, err := a.erp.Ping(ctx)
		if err != nil {
			return err
		}
		logger.Info("ERPNext reachable", "url", a.erp.BaseURL(), "user", user)
		return nil
	}, startupBackoff(logger, "erpnext")...)
	if err != nil {
		logger.Error(err, "ERPNext check failed at startup", "url", a.erp.BaseURL())
	}

	var failed []error
	for _, dev := range a.router.Devices() {
		var status string
		err := retry.WithExponentialBackoff(ctx, func(ctx context.Context) error {
			var perr error
			status, perr = dev.Ping(ctx)
			return perr
		}, startupBackoff(logger, dev.Name())...)
		if err != nil {
			logger.Error(err, "device check failed at startup", "device", dev.Name())
			failed = append(failed, fmt.Errorf("%s: %w", dev.Name(), err))
			continue
		}
		logger.Info("device status at startup", "device", dev.Name(), "status", status)
	}

	if len(failed) > 0 {
		return fmt.Errorf("device controller unreachable: %w", errors.Join(failed...))
	}
	return nil
}

func startupBackoff(logger logr.Logger, target string) []retry.Option {
	return []retry.Option{
		retry.WithMaxRetries(startupRetries),
		retry.WithInitialDelay(time.Second),
		retry.WithOnRetry(func(attempt int, err error) {
			logger.V(1).Info("startup check failed, retrying", "target", target, "attempt", attempt, "error", err.Error())
		}),
	}
}
