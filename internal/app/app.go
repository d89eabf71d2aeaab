// Package app wires configuration, storage, the catalog client, the
// Slack webhook, the command handler, the scheduler, and the HTTP
// server into one runnable unit.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"ctfnotice/internal/command"
	"ctfnotice/internal/config"
	"ctfnotice/internal/ctftime"
	"ctfnotice/internal/poller"
	"ctfnotice/internal/reminder"
	"ctfnotice/internal/scheduler"
	"ctfnotice/internal/seen"
	"ctfnotice/internal/server"
	"ctfnotice/internal/slack"
	"ctfnotice/internal/storage"
	"ctfnotice/internal/watchlist"
	logx "ctfnotice/pkg/logx"
)

const (
	defaultReminderSpec = "*/10 * * * *"
	defaultPollSpec     = "@hourly"
	defaultDaysAhead    = 30
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	catalog  *ctftime.Client
	webhook  *slack.Webhook
	reminder *reminder.Service
	poller   *poller.Service

	sched *scheduler.Service
	srv   *server.Server

	watchCancel context.CancelFunc
	updates     chan *config.Config
	wg          sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{cfgm: cfgm, log: log, logs: logSvc}
	if err := a.build(cfg); err != nil {
		logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	busyTimeout, err := cfg.Storage.BusyDuration()
	if err != nil {
		return err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, a.logs.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	catalogTimeout, err := cfg.CTFTime.RequestTimeout()
	if err != nil {
		return err
	}
	a.catalog = ctftime.New(ctftime.Config{
		BaseURL:    cfg.CTFTime.BaseURL,
		UserAgent:  cfg.CTFTime.UserAgent,
		Timeout:    catalogTimeout,
		RatePerSec: cfg.CTFTime.RatePerSec,
	}, a.logs.Logger().With(logx.String("comp", "ctftime")))

	a.webhook = slack.New(slack.Config{
		WebhookURL: cfg.Slack.WebhookURL,
		Timeout:    10 * time.Second,
		RatePerSec: cfg.Slack.RatePerSec,
	}, a.logs.Logger().With(logx.String("comp", "slack")))

	watchStore := watchlist.NewStore(store)
	seenStore := seen.NewStore(store)

	a.reminder = reminder.New(watchStore, a.catalog, a.webhook,
		a.logs.Logger().With(logx.String("comp", "reminder")))

	daysAhead := cfg.CTFTime.DaysAhead
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}
	a.poller = poller.New(a.catalog, seenStore, a.webhook, daysAhead,
		a.logs.Logger().With(logx.String("comp", "poller")))

	if err := a.buildScheduler(cfg); err != nil {
		return err
	}

	if cfg.Server.Enabled {
		if err := a.buildServer(cfg, watchStore); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) buildScheduler(cfg *config.Config) error {
	jobTimeout, err := cfg.Scheduler.JobTimeout()
	if err != nil {
		return err
	}
	a.sched = scheduler.New(scheduler.Config{
		Enabled:        cfg.Scheduler.Enabled,
		Workers:        cfg.Scheduler.Workers,
		DefaultTimeout: jobTimeout,
		HistorySize:    cfg.Scheduler.HistorySize,
		Timezone:       cfg.Scheduler.Timezone,
	}, a.logs.Logger().With(logx.String("comp", "scheduler")))

	reminderSpec := cfg.Scheduler.ReminderSpec
	if reminderSpec == "" {
		reminderSpec = defaultReminderSpec
	}
	if err := a.sched.Register("reminder-tick", "reminder tick", reminderSpec, 0, func(ctx context.Context) error {
		return a.reminder.Run(ctx, time.Now())
	}); err != nil {
		return fmt.Errorf("register reminder tick: %w", err)
	}

	pollSpec := cfg.Scheduler.PollSpec
	if pollSpec == "" {
		pollSpec = defaultPollSpec
	}
	if err := a.sched.Register("event-poll", "new event poll", pollSpec, 0, func(ctx context.Context) error {
		return a.poller.Run(ctx, time.Now())
	}); err != nil {
		return fmt.Errorf("register event poll: %w", err)
	}
	return nil
}

func (a *App) buildServer(cfg *config.Config, watchStore *watchlist.Store) error {
	handler := command.New(a.catalog, watchStore,
		a.logs.Logger().With(logx.String("comp", "command")))

	readTimeout, writeTimeout, idleTimeout, err := cfg.Server.Timeouts()
	if err != nil {
		return err
	}
	a.srv = server.New(server.Config{
		Addr:          cfg.Server.Addr,
		SigningSecret: cfg.Slack.SigningSecret,
		DebugPprof:    cfg.Server.DebugPprof,
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		IdleTimeout:   idleTimeout,
	}, handler, a.logs.Logger().With(logx.String("comp", "server")))
	return nil
}

// Start brings up the HTTP server, the scheduler, and the config watcher.
func (a *App) Start(ctx context.Context) error {
	if a.srv != nil {
		errCh := a.srv.Start()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err, ok := <-errCh; ok && err != nil {
				a.log.Error("http server failed", logx.Err(err))
			}
		}()
	}

	a.sched.Start(ctx)

	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	updates := a.cfgm.Subscribe(1)
	a.updates = updates
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			a.log.Warn("config watcher exited", logx.Err(err))
		}
	}()
	go func() {
		defer a.wg.Done()
		for cfg := range updates {
			// Logging is the only section applied live; everything
			// else takes effect on restart.
			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("config reloaded", logx.String("log_level", cfg.Logging.Level))
		}
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify: ready")
	}
	a.log.Info("started")
	return nil
}

// PollOnce runs a single new-event poll. Used by the one-shot checker.
func (a *App) PollOnce(ctx context.Context) error {
	return a.poller.Run(ctx, time.Now())
}

func (a *App) Stop(ctx context.Context) error {
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err == nil && sent {
		a.log.Debug("sd_notify: stopping")
	}

	a.sched.Stop(ctx)
	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			a.log.Warn("http server shutdown", logx.Err(err))
		}
	}
	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.updates != nil {
		a.cfgm.Unsubscribe(a.updates)
	}
	a.wg.Wait()

	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close", logx.Err(err))
	}
	a.log.Info("stopped")
	a.logs.Close()
	return nil
}
