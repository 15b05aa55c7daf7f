package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shaharia-lab/courier/internal/build"
	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/logger"
	"github.com/shaharia-lab/courier/internal/metrics"
	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/scheduler"
	"github.com/shaharia-lab/courier/internal/service"
	"github.com/shaharia-lab/courier/internal/storage"
	"github.com/shaharia-lab/courier/internal/telemetry"
)

// app is the fully wired process: storage, senders, dispatch engine,
// scheduler and the services on top.
type app struct {
	cfg       *config.AppConfig
	logger    *slog.Logger
	logCloser io.Closer
	db        *sql.DB
	metrics   *metrics.Metrics
	bus       eventbus.EventBus
	scheduler *scheduler.Scheduler
	service   service.NotificationService

	shutdownTracing telemetry.ShutdownFunc
}

// openLogger creates the system logger for cfg.
func openLogger(cfg *config.AppConfig) (*slog.Logger, io.Closer, error) {
	opts := logger.DefaultOptions()
	opts.Stderr = cfg.LogStderr
	log, closer, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return log, closer, nil
}

// newApp wires every component. Listeners passed in are subscribed to the
// event bus before anything can publish.
func newApp(ctx context.Context, cfg *config.AppConfig, listeners ...eventbus.Listener) (*app, error) {
	sysLogger, logCloser, err := openLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: sysLogger, logCloser: logCloser}

	a.shutdownTracing, err = telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "courier",
		ServiceVersion: build.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	db, fresh, err := storage.NewSQLiteDB(cfg.DatabasePath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	if fresh {
		sysLogger.Info("created database", "path", cfg.DatabasePath())
	}

	a.metrics = metrics.New()
	a.bus = eventbus.New(0, sysLogger)
	a.bus.Subscribe(a.metrics.Listener())
	for _, l := range listeners {
		a.bus.Subscribe(l)
	}

	senders := buildSenders(cfg, a.metrics, sysLogger)
	if cfg.AlertEmail != "" {
		if email, ok := senders.Get(notification.ChannelEmail); ok {
			a.bus.Subscribe(eventbus.Filter(
				notification.NewAlertHandler(email, cfg.AlertEmail, sysLogger).Listener(),
				eventbus.TaskDeadLettered,
			))
		} else {
			sysLogger.Warn("ALERT_EMAIL is set but SMTP is not configured; operator alerts disabled")
		}
	}

	prefs := storage.NewSQLitePreferenceStore(db)
	deliveries := storage.NewSQLiteDeliveryLogStore(db)
	deadLetters := storage.NewSQLiteDeadLetterStore(db)

	engine := dispatch.NewEngine(dispatch.Config{
		Preferences: prefs,
		Senders:     senders,
		DeliveryLog: deliveries,
		Recorder:    a.metrics,
		Logger:      sysLogger,
	})

	a.scheduler, err = scheduler.New(scheduler.Config{
		Users:          storage.NewSQLiteUserStore(db),
		Dispatcher:     engine,
		DeadLetters:    deadLetters,
		Policy:         cfg.RetryPolicy(),
		MaxConcurrency: cfg.WorkerConcurrency,
		TaskTimeout:    cfg.TaskTimeout,
		EventPublisher: a.bus,
		Logger:         sysLogger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	a.service = service.NewNotificationService(service.NotificationServiceConfig{
		Queue:       a.scheduler,
		Preferences: prefs,
		DeliveryLog: deliveries,
		DeadLetters: deadLetters,
		Events:      a.bus,
		Logger:      sysLogger,
	})

	sysLogger.Info("courier initialized",
		slog.String("data_dir", cfg.DataDir),
		slog.Any("channels", senders.Channels()),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
	)
	return a, nil
}

// buildSenders registers a sender for every configured channel, each behind
// its own circuit breaker unless breakers are disabled.
func buildSenders(cfg *config.AppConfig, m *metrics.Metrics, log *slog.Logger) *notification.Registry {
	var senders []notification.Sender
	if smtp := cfg.SMTP(); smtp.Enabled() {
		senders = append(senders, notification.NewEmailSender(smtp, log))
	}
	if smsc := cfg.SMSC(); smsc.Enabled() {
		senders = append(senders, notification.NewSMSSender(smsc, log))
	}
	if tg := cfg.Telegram(); tg.Enabled() {
		senders = append(senders, notification.NewTelegramSender(tg, log))
	}

	if cfg.BreakerEnabled {
		bc := cfg.Breaker()
		if m != nil {
			bc.OnStateChange = m.BreakerStateChange
		}
		for i, s := range senders {
			senders[i] = notification.NewBreakerSender(s, bc, log)
		}
	}
	return notification.NewRegistry(senders...)
}

// Close stops the scheduler and releases resources in reverse order of
// creation. It is safe to call on a partially built app.
func (a *app) Close() {
	var errs []error
	if a.scheduler != nil {
		errs = append(errs, a.scheduler.Stop())
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, a.shutdownTracing(ctx))
		cancel()
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("errors during shutdown", "error", err)
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
