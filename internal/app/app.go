// Package app wires the configured bot together: transport, logging,
// storage, dispatch, and scheduling.
package app

import (
	"context"
	"strings"
	"time"

	"botlib/internal/config"
	"botlib/internal/core"
	"botlib/internal/events"
	rtsup "botlib/internal/runtime/supervisor"
	"botlib/internal/storage"
	kit "botlib/internal/transport"
	telegram "botlib/internal/transport/telegram"
	logx "botlib/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store
	rec   *events.Recorder

	adapter *telegram.Adapter

	registry   *core.Registry
	sessions   *core.SessionTracker
	dispatcher *core.Dispatcher
	scheduler  *core.Scheduler

	updates chan kit.Update
}

// New loads the config, builds the registry from the bot's declarations,
// and wires everything together. Registration problems (duplicate command,
// unknown parameter role) surface here as startup errors.
func New(cfgPath string, spec *core.BotSpec) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))

	pollTimeout, err := cfg.PollTimeout()
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg), ad)
	log = log.With(logx.String("comp", "app"))

	// Storage (optional)
	var store storage.Store
	if cfg.Storage != nil && !isDisabledDriver(cfg.Storage.Driver) {
		sc, err := mapStorageConfig(cfg.Storage)
		if err != nil {
			return nil, err
		}
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	rec := events.NewRecorder(log.With(logx.String("comp", "events")), store)

	binder := core.NewBinder(ad, ad, rec)
	registry, err := core.BuildRegistry(spec, binder)
	if err != nil {
		return nil, err
	}
	nc, na, ns := registry.Counts()
	log.Info("registry built", logx.Int("commands", nc), logx.Int("auto_replies", na), logx.Int("scheduled", ns))

	sessions := core.NewSessionTracker()
	gate := core.NewGate(ad, ad)

	invokeTimeout, err := cfg.InvokeTimeout()
	if err != nil {
		return nil, err
	}
	dispLog := log.With(logx.String("comp", "dispatch"))
	mw := []core.Middleware{core.MWInvokeLog(dispLog), core.MWPanicRecover(dispLog)}
	if invokeTimeout > 0 {
		mw = append(mw, core.MWTimeout(invokeTimeout))
	}

	dispOpts := []core.DispatcherOption{
		core.WithDispatchLogger(dispLog),
		core.WithMiddleware(mw...),
	}
	if cfg.Dispatch.QueueSize > 0 {
		dispOpts = append(dispOpts, core.WithQueueCap(cfg.Dispatch.QueueSize))
	}
	dispatcher := core.NewDispatcher(registry, gate, binder, sessions, rec, dispOpts...)

	scheduler := core.NewScheduler(registry, binder, sessions, rec,
		core.WithSchedulerLogger(log.With(logx.String("comp", "scheduler"))))

	return &App{
		cfgPath:    cfgPath,
		cfgm:       cfgm,
		log:        log,
		logs:       logSvc,
		store:      store,
		rec:        rec,
		adapter:    ad,
		registry:   registry,
		sessions:   sessions,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		updates:    make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the supervisor context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	a.sup.Go("dispatch", func(c context.Context) error {
		return a.dispatcher.Run(c, a.updates)
	})

	if err := a.scheduler.Start(a.sup.Context()); err != nil {
		return err
	}

	// Hot-reload: watch the config file and re-apply logging on change.
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
	cfgCh := a.cfgm.Subscribe(4)
	a.sup.Go0("config.apply", func(c context.Context) {
		defer a.cfgm.Unsubscribe(cfgCh)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-cfgCh:
				if !ok {
					return
				}
				if cfg == nil {
					continue
				}
				a.logs.Apply(mapLoggingConfig(cfg))
				a.log.Info("logging config applied")
			}
		}
	})

	a.log.Info("started", logx.Int("update_queue_cap", cap(a.updates)))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")

	a.scheduler.Stop()

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = a.adapter.Stop(stopCtx)

	if a.sup != nil {
		a.sup.Cancel()
		_ = a.sup.Wait(stopCtx)
	}

	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logs.Close()
	return nil
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ChatID:     cfg.Logging.Telegram.ChatID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func isDisabledDriver(driver string) bool {
	d := strings.ToLower(strings.TrimSpace(driver))
	return d == "" || d == "none" || d == "off"
}

func mapStorageConfig(sc *config.StorageConfig) (storage.Config, error) {
	out := storage.Config{
		Driver: strings.ToLower(strings.TrimSpace(sc.Driver)),
		Path:   sc.Path,
	}
	if bt := strings.TrimSpace(sc.BusyTimeout); bt != "" {
		d, err := time.ParseDuration(bt)
		if err != nil {
			return storage.Config{}, err
		}
		out.BusyTimeout = d
	}
	return out, nil
}
