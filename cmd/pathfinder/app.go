package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"pathfinder/internal/client"
	"pathfinder/internal/config"
	"pathfinder/internal/repository"
	"pathfinder/internal/repository/sqlite"
	"pathfinder/internal/service"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the wired components for one invocation
type app struct {
	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger

	repo repository.Repository
	api  *client.Client
	orch *service.Orchestrator

	events chan service.Event
	done   chan struct{}

	stdin  io.Reader
	lines  *bufio.Reader
	out    io.Writer
	errOut io.Writer
	format string
}

func newApp(cfg *config.Config, cfgPath string, opts globalOptions, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}

	repo, err := openState(cfg.State)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logger,
		repo:    repo,
		events:  make(chan service.Event, 64),
		done:    make(chan struct{}),
		stdin:   stdin,
		lines:   bufio.NewReader(stdin),
		out:     stdout,
		errOut:  stderr,
		format:  opts.output,
	}

	httpClient := &http.Client{Timeout: cfg.API.Timeout.Duration()}
	a.api = client.New(cfg.API.URL, httpClient, logger.Named("client"))

	sessions := service.NewSessionStore(a.api, repo, logger.Named("session"))
	a.api.SetAuthorizer(sessions)
	graph := service.NewGraphRepository(a.api, sessions, logger.Named("graph"))
	algo := service.NewAlgorithmClient(a.api, logger.Named("algorithm"))

	var confirmer service.Confirmer = service.ConfirmFunc(a.confirm)
	if opts.yes {
		confirmer = service.AlwaysConfirm
	}

	bus := service.NewEventBus()
	bus.Subscribe(a.events)
	go a.logEvents()

	a.orch = service.NewOrchestrator(sessions, graph, algo, confirmer, bus, logger.Named("orchestrator"))
	return a, nil
}

// Close stops event logging and releases the state database
func (a *app) Close() error {
	a.orch.Events().Unsubscribe(a.events)
	close(a.events)
	<-a.done

	err := a.repo.Close()
	_ = a.logger.Sync()
	return err
}

func (a *app) logEvents() {
	defer close(a.done)
	for event := range a.events {
		switch event.Type {
		case service.EventSessionExpired:
			a.logger.Warn("session expired")
		default:
			a.logger.Debug("event", zap.String("type", string(event.Type)), zap.Any("payload", event.Payload))
		}
	}
}

// newLogger writes to w so command output on stdout stays clean
func newLogger(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), level)), nil
}

func openState(cfg config.StateConfig) (repository.Repository, error) {
	if !cfg.ShouldPersist() {
		return repository.NewMemory(), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	repo, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", cfg.Path, err)
	}
	return repo, nil
}
