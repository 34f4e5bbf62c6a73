// Package app wires every syncbatcher component and runs them until a
// termination signal arrives.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/adapters/externalqueue"
	"github.com/jademcosta/syncbatcher/pkg/adapters/httpin"
	"github.com/jademcosta/syncbatcher/pkg/adapters/manifeststore"
	"github.com/jademcosta/syncbatcher/pkg/adapters/objstorage"
	"github.com/jademcosta/syncbatcher/pkg/adapters/queueconsumer"
	"github.com/jademcosta/syncbatcher/pkg/adapters/transfer"
	"github.com/jademcosta/syncbatcher/pkg/archive"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/coordinator"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/instancelock"
	"github.com/jademcosta/syncbatcher/pkg/invoker"
	"github.com/jademcosta/syncbatcher/pkg/normalizer"
	"github.com/jademcosta/syncbatcher/pkg/o11y/tracing"
	"github.com/jademcosta/syncbatcher/pkg/scheduler"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
)

const tracerShutdownTimeout = 5 * time.Second

type App struct {
	conf         *config.Config
	logger       *slog.Logger
	ctx          context.Context
	stopFunc     context.CancelFunc
	shutdownDone chan struct{}
}

func New(c *config.Config, logger *slog.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		conf:         c,
		logger:       logger,
		ctx:          ctx,
		stopFunc:     cancel,
		shutdownDone: make(chan struct{}),
	}
}

// Start blocks until the app is stopped by a signal, by Stop, or by a
// component failing.
func (a *App) Start() error {
	defer close(a.shutdownDone)

	if a.conf.InstanceLock.Path != "" {
		lock, err := instancelock.Acquire(a.conf.InstanceLock.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				a.logger.Error("error releasing instance lock", "error", err)
			}
		}()
		a.logger.Info("instance lock acquired", "path", lock.Path())
	}

	metricRegistry := prometheus.NewRegistry()
	registerDefaultMetrics(metricRegistry)

	tracer, tracerShutdown, err := tracing.NewTracer(a.ctx, a.conf.O11y.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			a.logger.Error("error shutting down tracer", "error", err)
		}
	}()

	coord, store, err := BuildCoordinator(a.logger, a.conf, metricRegistry, tracer)
	if err != nil {
		return err
	}
	defer closeIfCloser(a.logger, store)

	inv := invoker.New(a.logger, coord, a.conf.Coordinator.InvocationTimeout, metricRegistry)

	api, err := httpin.NewAPI(a.logger, *a.conf, metricRegistry, tracer, a.conf.Version, inv, coord)
	if err != nil {
		return err
	}

	consumer, err := queueconsumer.New(a.logger, metricRegistry, &a.conf.Consumer, inv)
	if err != nil {
		return fmt.Errorf("error creating queue consumer: %w", err)
	}

	//The shutdown of rungroup is executed from a single goroutine, in the order
	//actors were added. Producers are added before the invoker so they are
	//already stopping when the invoker waits for them.
	var g run.Group

	a.addShutdownRelatedActors(&g)

	producersDone := make([]<-chan struct{}, 0, 3)
	producersDone = append(producersDone, addAPIActor(&g, a.logger, api))

	if consumer != nil {
		producersDone = append(producersDone, addRunnableActor(&g, a.logger, "queue consumer", consumer))
	}

	if a.conf.Scheduler.Enabled {
		sched := scheduler.New(a.logger, inv, a.conf.Scheduler.Interval)
		producersDone = append(producersDone, addRunnableActor(&g, a.logger, "scheduler", sched))
	}

	invokerContext, invokerCancel := context.WithCancel(context.Background())
	g.Add(
		func() error {
			inv.Run(invokerContext)
			return nil
		},
		func(error) {
			for _, done := range producersDone {
				<-done
			}
			a.logger.Info("shutting down invoker")
			invokerCancel()
		},
	)

	err = g.Run()
	if err != nil {
		a.logger.Error("something went wrong when running the components", "error", err)
	}
	a.logger.Info("syncbatcher stopped")
	return err
}

func (a *App) Stop() <-chan struct{} {
	a.logger.Debug("app stop called")
	a.stopFunc()
	return a.shutdownDone
}

func (a *App) addShutdownRelatedActors(g *run.Group) {
	signalsCh := make(chan os.Signal, 2)
	signal.Notify(signalsCh, syscall.SIGINT, syscall.SIGTERM)

	g.Add(func() error {
		select {
		case s := <-signalsCh:
			a.logger.Info("received signal, shutting down", "signal", s)
		case <-a.ctx.Done():
		}
		return nil
	}, func(error) {
		a.stopFunc()
		signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	})
}

type runnable interface {
	Run(ctx context.Context)
}

func addRunnableActor(g *run.Group, l *slog.Logger, name string, r runnable) <-chan struct{} {
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	g.Add(
		func() error {
			defer close(done)
			r.Run(ctx)
			return nil
		},
		func(error) {
			l.Info("shutting down " + name)
			cancel()
		},
	)

	return done
}

func addAPIActor(g *run.Group, l *slog.Logger, api *httpin.API) <-chan struct{} {
	done := make(chan struct{})

	g.Add(
		func() error {
			defer close(done)
			err := api.ListenAndServe()
			if err != nil {
				l.Error("api listening and serving failed", "error", err)
			}
			return err
		},
		func(error) {
			l.Info("shutting down api")
			if err := api.Shutdown(); err != nil {
				l.Error("api shutdown failed", "error", err)
			}
		},
	)

	return done
}

// BuildCoordinator creates the coordinator with its manifest store, transfer
// trigger and flush listeners. The returned store should be closed by the caller.
func BuildCoordinator(
	l *slog.Logger, conf *config.Config, metricRegistry *prometheus.Registry, tracer trace.Tracer,
) (*coordinator.Coordinator, manifeststore.StoreWithMetadata, error) {

	store, err := manifeststore.New(l, metricRegistry, &conf.ManifestStore)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating manifest store: %w", err)
	}

	trigger, err := transfer.New(l, metricRegistry, &conf.Transfer)
	if err != nil {
		closeIfCloser(l, store)
		return nil, nil, fmt.Errorf("error creating transfer trigger: %w", err)
	}

	listeners, err := createFlushListeners(l, conf, metricRegistry)
	if err != nil {
		closeIfCloser(l, store)
		return nil, nil, err
	}

	norm := normalizer.New(domain.NewObservableRecordSkipper(l, metricRegistry))
	coord := coordinator.New(l, conf.Coordinator, store, trigger, norm, metricRegistry, tracer,
		time.Now, listeners...)

	return coord, store, nil
}

func createFlushListeners(
	l *slog.Logger, conf *config.Config, metricRegistry *prometheus.Registry,
) ([]coordinator.FlushListener, error) {

	listeners := make([]coordinator.FlushListener, 0, 2)

	queue, err := externalqueue.New(l, metricRegistry, &conf.Notifier)
	if err != nil {
		return nil, fmt.Errorf("error creating flush notifier: %w", err)
	}
	listeners = append(listeners, externalqueue.NewFlushNotifier(l, queue))

	if conf.Archive.Enabled {
		storage, err := objstorage.New(l, metricRegistry, &conf.Archive.ObjectStorage)
		if err != nil {
			return nil, fmt.Errorf("error creating archive storage: %w", err)
		}
		listeners = append(listeners, archive.New(l, conf.Archive, storage, metricRegistry, time.Now))
	}

	return listeners, nil
}

// InvokeOnce applies a single inbound payload and returns, without starting
// any long-running component.
func InvokeOnce(ctx context.Context, l *slog.Logger, conf *config.Config, payload []byte) (domain.Outcome, error) {
	metricRegistry := prometheus.NewRegistry()

	coord, store, err := BuildCoordinator(l, conf, metricRegistry, tracing.NewNoopTracer())
	if err != nil {
		return domain.Outcome{}, err
	}
	defer closeIfCloser(l, store)

	if conf.Coordinator.InvocationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conf.Coordinator.InvocationTimeout)
		defer cancel()
	}

	return coord.Invoke(ctx, normalizer.ParseEvent(payload))
}

func closeIfCloser(l *slog.Logger, v interface{}) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}

	if err := closer.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		l.Error("error closing resource", "error", err)
	}
}

func registerDefaultMetrics(registry *prometheus.Registry) {
	registry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
		),
	)
}
