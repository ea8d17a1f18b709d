package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"edgecam/bridge"
	"edgecam/capture"
	"edgecam/core"
	"edgecam/edges"
	"edgecam/logging"
	"edgecam/metrics"
	"edgecam/pipeline"
	"edgecam/shutdown"
	"edgecam/stream"
	"edgecam/webui"
	"edgecam/webui/auth"
)

// limiterCleanupInterval is how often expired auth attempt records are
// dropped.
const limiterCleanupInterval = time.Minute

// App is the running service: frame source, bridge, pipeline, stream hub and
// web server, tied together by a shutdown manager.
type App struct {
	cfg    *core.Config
	logger *logging.Logger

	manager  *shutdown.Manager
	source   capture.Source
	bridge   *bridge.Bridge
	store    *metrics.Store
	hub      *stream.Hub
	pipeline *pipeline.Pipeline
	server   *webui.Server
	limiter  *auth.Limiter
}

// NewApp builds every component from cfg. Nothing runs until Run.
func NewApp(cfg *core.Config, logger *logging.Logger, opts ...shutdown.ManagerOption) (*App, error) {
	filter, err := edges.NewFilter(cfg.FilterBackend)
	if err != nil {
		return nil, err
	}
	br := bridge.New(bridge.Config{
		Filter:      filter,
		Logger:      logger.Named("bridge"),
		LockTimeout: cfg.LockTimeout(),
	})
	if !br.SelfTest() {
		return nil, fmt.Errorf("filter %s failed its self test", br.FilterName())
	}

	effect, err := pipeline.ParseEffect(cfg.Effect)
	if err != nil {
		return nil, err
	}

	source, err := capture.Open(cfg.Source, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame source %q: %w", cfg.Source, err)
	}

	if cfg.ShutdownTimeout > 0 {
		opts = append([]shutdown.ManagerOption{shutdown.WithTimeout(cfg.ShutdownTimeout)}, opts...)
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		manager: shutdown.NewManager(logger.Zap(), opts...),
		source:  source,
		bridge:  br,
		store:   metrics.NewStore(metrics.StoreConfig{Version: core.GetVersion()}, time.Now()),
		hub:     stream.NewHub(stream.DefaultConfig(), logger.Zap().Named("stream")),
	}

	controls := pipeline.NewControls(cfg.Processing, effect)
	a.pipeline, err = pipeline.New(pipeline.Config{
		Source:      source,
		Processor:   br,
		Publisher:   a.hub,
		Metrics:     a.store,
		Tracker:     a.manager,
		Controls:    controls,
		Logger:      logger.Named("pipeline"),
		FPS:         cfg.FPS,
		JPEGQuality: cfg.JPEGQuality,
	})
	if err != nil {
		source.Close()
		return nil, err
	}

	var guard webui.Middleware
	if cfg.HasControlPassword() {
		a.limiter = auth.NewLimiter(0, 0, 0)
		basic, err := auth.NewBasicAuth(cfg.ControlPassword, a.limiter, logger.Zap().Named("auth"))
		if err != nil {
			source.Close()
			return nil, err
		}
		guard = basic.Middleware
	}

	serverCfg := webui.DefaultServerConfig()
	serverCfg.Addr = cfg.Addr()
	a.server, err = webui.NewServer(serverCfg, webui.Deps{
		Hub:      a.hub,
		Controls: controls,
		Metrics:  a.store,
		Bridge:   br,
		Auth:     guard,
		Logger:   logger.Zap().Named("http"),
	})
	if err != nil {
		source.Close()
		return nil, err
	}

	logger.Info("Configuration loaded",
		zap.String("addr", cfg.Addr()),
		zap.String("source", cfg.Source),
		zap.Int("width", cfg.FrameWidth),
		zap.Int("height", cfg.FrameHeight),
		zap.Int("fps", cfg.FPS),
		zap.String("filter", br.FilterName()),
		zap.Duration("lock_timeout", cfg.LockTimeout()),
		zap.Bool("processing", cfg.Processing),
		zap.String("effect", cfg.Effect),
		zap.Bool("control_auth", cfg.HasControlPassword()),
	)
	return a, nil
}

// HandleSignals makes SIGINT and SIGTERM stop the app.
func (a *App) HandleSignals() {
	a.manager.Start()
}

// Stop asks a running app to shut down. Run returns once cleanup is done.
func (a *App) Stop(reason string) {
	a.manager.Trigger(reason)
}

// Handler returns the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run starts the pipeline and the web server and blocks until shutdown has
// completed. It returns the first component failure joined with any cleanup
// errors.
func (a *App) Run() error {
	ctx := a.manager.Context()
	failures := make(chan error, 2)

	pipeCtx, stopPipeline := context.WithCancel(ctx)
	pipeDone := make(chan struct{})
	go func() {
		defer close(pipeDone)
		if err := a.pipeline.Run(pipeCtx); err != nil {
			failures <- fmt.Errorf("pipeline: %w", err)
			a.manager.Trigger("frame source closed")
		}
	}()

	go func() {
		if err := a.server.Start(); err != nil {
			failures <- err
			a.manager.Trigger("web server failed")
		}
	}()

	if a.limiter != nil {
		a.limiter.StartCleanup(ctx, limiterCleanupInterval)
	}

	a.manager.Register("pipeline", shutdown.PriorityStopIntake, shutdown.Cancel(stopPipeline, pipeDone))
	a.manager.Register("stream hub", shutdown.PriorityServer, shutdown.Closer(a.hub))
	a.manager.Register("web server", shutdown.PriorityServer, a.server.Shutdown)
	a.manager.Register("frame source", shutdown.PriorityResources, shutdown.Closer(a.source))
	a.manager.Register("logger", shutdown.PriorityFlush, shutdown.Func(a.syncLogger))

	<-ctx.Done()
	shutdownErr := a.manager.Shutdown()

	var runErr error
	select {
	case runErr = <-failures:
	default:
	}
	return errors.Join(runErr, shutdownErr)
}

// syncLogger flushes the log file. Console sync errors are ignored; stdout
// rejects fsync on most terminals.
func (a *App) syncLogger() error {
	a.logger.Sync()
	return nil
}
