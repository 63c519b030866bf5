// Package app wires configuration, logging, the Telegram adapter, the
// notifier and the HTTP server into one runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"formrelay/internal/config"
	"formrelay/internal/notifier"
	"formrelay/internal/runtime/supervisor"
	"formrelay/internal/server"
	"formrelay/internal/transport/telegram/adapter"
	logx "formrelay/pkg/logx"
)

type Options struct {
	// ConfigPath is an optional YAML/JSON file. Empty means defaults plus
	// environment.
	ConfigPath string
	// EnvFile is loaded before the environment is read. Empty means ".env"
	// and a missing default file is not an error.
	EnvFile string
}

type App struct {
	cfgm *config.ConfigManager

	log  logx.Logger
	logs *logx.Service

	adapter  *adapter.Adapter
	notifier *notifier.Service
	server   *server.Server

	shutdownTimeout time.Duration

	mu      sync.Mutex
	current *config.Config
	sup     *supervisor.Supervisor
	done    chan struct{}
}

func New(opts Options) (*App, error) {
	boot := logx.NewConsole("info")

	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfgm := config.NewConfigManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	adCfg, err := mapAdapterConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := adapter.New(adCfg, boot.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	logCfg, err := mapLogConfig(cfg)
	if err != nil {
		return nil, err
	}
	logSvc, log := logx.New(logCfg, ad)

	srvCfg, err := mapServerConfig(cfg)
	if err != nil {
		return nil, err
	}
	shutdown, err := mapShutdownTimeout(cfg)
	if err != nil {
		return nil, err
	}
	dest, err := cfg.Destination()
	if err != nil {
		return nil, err
	}

	notif := notifier.New(ad, log.With(logx.String("comp", "notifier")))
	form := server.NewFormHandler(notif, dest, log.With(logx.String("comp", "form")))
	srv := server.New(srvCfg, form, log.With(logx.String("comp", "http")))

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
		if _, err := mapLogConfig(c); err != nil {
			return err
		}
		_, err := mapServerConfig(c)
		return err
	})

	log.Info("formrelay configured",
		logx.String("config", cfgm.Path()),
		logx.String("addr", srvCfg.Addr),
		logx.Int64("chat_id", dest),
	)

	return &App{
		cfgm:            cfgm,
		log:             log,
		logs:            logSvc,
		adapter:         ad,
		notifier:        notif,
		server:          srv,
		shutdownTimeout: shutdown,
		current:         cfg,
		done:            make(chan struct{}),
	}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

// Addr reports the bound HTTP address once Start has returned.
func (a *App) Addr() string { return a.server.Addr() }

// Start binds the HTTP listener and launches the background goroutines.
// Bind errors are returned directly; later failures surface through Done
// and Err.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sup != nil {
		return errors.New("app already started")
	}

	if err := a.server.Listen(); err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	sup := supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	a.sup = sup

	sup.Go("http.serve", a.server.Serve)
	sup.GoRestart("config.watch", 500*time.Millisecond, 10*time.Second, a.cfgm.Watch)

	updates := a.cfgm.Subscribe(4)
	sup.Go("config.reload", func(ctx context.Context) error {
		defer a.cfgm.Unsubscribe(updates)
		return a.reloadLoop(ctx, updates)
	})

	go func() {
		<-sup.Context().Done()
		close(a.done)
	}()

	sdNotify(a.log, daemon.SdNotifyReady)
	a.log.Info("formrelay started", logx.String("addr", a.server.Addr()))
	return nil
}

// reloadLoop applies config updates that a running process can absorb.
// Bursts are coalesced so only the newest config is applied.
func (a *App) reloadLoop(ctx context.Context, updates <-chan *config.Config) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-updates:
			if !ok {
				return nil
			}
		drain:
			for {
				select {
				case newer, ok := <-updates:
					if !ok {
						break drain
					}
					next = newer
				default:
					break drain
				}
			}
			a.applyConfig(next)
		}
	}
}

func (a *App) applyConfig(next *config.Config) {
	a.mu.Lock()
	prev := a.current
	a.current = next
	a.mu.Unlock()

	changed, attrs := config.SummarizeConfigChange(prev, next)
	if len(changed) == 0 {
		return
	}

	if logCfg, err := mapLogConfig(next); err == nil {
		a.logs.Apply(logCfg)
	} else {
		a.log.Warn("logging config not applied", logx.Err(err))
	}
	a.server.ApplyCORS(mapCORSConfig(next))

	a.log.Info("config reloaded", attrs...)
	if pending := config.RestartRequired(changed); len(pending) > 0 {
		a.log.Warn("config changes need a restart to take effect", logx.Any("sections", pending))
	}
}

// Stop shuts the HTTP server down gracefully, then stops background work
// and flushes the log sinks.
func (a *App) Stop(ctx context.Context) error {
	sdNotify(a.log, daemon.SdNotifyStopping)

	sctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Stop(sctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}

	a.mu.Lock()
	sup := a.sup
	a.mu.Unlock()
	if sup != nil {
		if err := sup.Stop(sctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}

	a.log.Info("formrelay stopped")
	_ = a.logs.Close()
	return errors.Join(errs...)
}

// Done is closed when the app's supervisor context ends, either through
// Stop, cancellation of the Start context, or a fatal goroutine error.
func (a *App) Done() <-chan struct{} { return a.done }

// Err returns the first fatal error, if any.
func (a *App) Err() error {
	a.mu.Lock()
	sup := a.sup
	a.mu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Err()
}
