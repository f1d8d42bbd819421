package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jessevdk/go-flags"
	"github.com/miciek335/vinted-listing-tracker/internal/clients/gemini"
	"github.com/miciek335/vinted-listing-tracker/internal/clients/render"
	"github.com/miciek335/vinted-listing-tracker/internal/clients/vinted"
	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/internal/desktop"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/internal/logger"
	"github.com/miciek335/vinted-listing-tracker/internal/metrics"
	"github.com/miciek335/vinted-listing-tracker/internal/notify"
	"github.com/miciek335/vinted-listing-tracker/internal/repositories"
	"github.com/miciek335/vinted-listing-tracker/internal/services"
	"github.com/miciek335/vinted-listing-tracker/internal/stealth"
	"github.com/miciek335/vinted-listing-tracker/pkg/ctxsleep"
	log "github.com/sirupsen/logrus"
)

type options struct {
	Config   string `short:"c" long:"config" description:"Path to the configuration file" env:"CONFIG_PATH"`
	Once     bool   `long:"once" description:"Run a single monitoring cycle and exit"`
	NoBanner bool   `long:"no-banner" description:"Skip the startup summary and countdown"`
}

type seenStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
	Close() error
}

type pageFetcher interface {
	Render(ctx context.Context, url string, profile entities.StealthProfile) (entities.RawPage, error)
}

func openStore(ctx context.Context, cfg config.StateConfig) (seenStore, error) {
	switch cfg.Driver {
	case config.StateSQLite:
		return repositories.NewSeenSQLite(cfg.Path)
	case config.StatePostgres:
		return repositories.NewSeenPostgres(ctx, cfg.DSN)
	case config.StateRedis:
		return repositories.NewSeenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKey)
	default:
		return repositories.NewSeenFile(cfg.Path), nil
	}
}

func newFetcher(cfg config.FetcherConfig) pageFetcher {
	if cfg.Backend == config.BackendRenderService {
		client := render.NewClient(cfg.RenderServiceURL, cfg.Timeout)
		client.SetRateLimit(cfg.MaxRequestsPerSecond)
		return client
	}
	return vinted.NewFetcher(cfg.Timeout)
}

// newChannels builds every ready notification channel. The returned func releases their resources.
func newChannels(cfg config.NotificationsConfig) ([]notify.Channel, func()) {
	var channels []notify.Channel
	var cleanups []func()

	for _, check := range cfg.Checks() {
		switch check.State {
		case config.ChannelDisabled:
			continue
		case config.ChannelMisconfigured:
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeConfig).
				Warnf("%s notifications enabled but missing %v, skipping", check.Channel, check.Missing)
			continue
		}

		channel, cleanup, err := newChannel(check.Channel, cfg)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeConfig).
				Warnf("%s notifications unavailable, skipping: %v", check.Channel, err)
			continue
		}
		channels = append(channels, channel)
		if cleanup != nil {
			cleanups = append(cleanups, cleanup)
		}
	}

	return channels, func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
}

func newChannel(name string, cfg config.NotificationsConfig) (notify.Channel, func(), error) {
	switch name {
	case "Discord":
		return notify.NewDiscord(cfg.Discord), nil, nil
	case "Telegram":
		telegram, err := notify.NewTelegram(cfg.Telegram)
		return telegram, nil, err
	case "Toast":
		return newToast(cfg.Toast)
	case "AMQP":
		amqp, err := notify.NewAMQP(cfg.AMQP)
		if err != nil {
			return nil, nil, err
		}
		return amqp, func() { _ = amqp.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown channel %s", name)
	}
}

func newToast(cfg config.ToastConfig) (notify.Channel, func(), error) {
	bus := EventBus.New()

	toaster, err := desktop.NewToaster(cfg.AppName, bus)
	if err != nil {
		return nil, nil, err
	}

	if _, err := desktop.NewOpener(bus, toaster); err != nil {
		return nil, nil, err
	}

	toast := notify.NewToast(toaster)
	return toast, func() {
		bus.WaitAsync()
		toast.Close()
	}, nil
}

func main() {

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get(opts.Config)

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	store, err := openStore(ctx, cfg.State)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeState).Fatalf("can't open seen listings store: %v", err)
	}
	defer store.Close()

	seen := services.NewSeenListings(store)
	seen.Load(ctx)

	channels, closeChannels := newChannels(cfg.Notifications)
	defer closeChannels()
	fanout := notify.NewFanout(channels...)
	if fanout.Len() == 0 {
		log.Warn("No notification channels are ready, new listings will only be logged")
	} else {
		log.Infof("Notification channels: %v", fanout.Names())
	}

	scheduler := stealth.NewScheduler(cfg.Monitor.CheckInterval(), cfg.Monitor.RandomizationPercent)

	monitor, err := services.NewMonitor(cfg.SearchSpecs(), cfg.Monitor.MaxNotificationsPerSearch,
		newFetcher(cfg.Fetcher), vinted.NewExtractor(cfg.Monitor.BaseURL), fanout, scheduler, seen)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeConfig).Fatalf("can't create monitor: %v", err)
	}

	if cfg.AI.Enabled {
		aiClient, err := gemini.NewClient(ctx, cfg.AI)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Fatalf("can't create AI client: %v", err)
		}
		defer aiClient.Close()
		monitor.SetRelevanceFilter(services.NewRelevanceFilter(aiClient))
	}

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Addr, monitor)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	reporter, err := services.NewStateReporter(cfg.State.ReportSchedule, seen, cfg.State.WarnThreshold)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeConfig).Warnf("seen listings reporter disabled: %v", err)
	} else {
		reporter.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			reporter.Stop(stopCtx)
		}()
	}

	if !opts.NoBanner {
		services.PrintBanner(os.Stdout, services.BannerInfo{
			Searches:             cfg.SearchSpecs(),
			Channels:             cfg.Notifications.Checks(),
			CheckInterval:        cfg.Monitor.CheckInterval(),
			MaxNotifications:     cfg.Monitor.MaxNotificationsPerSearch,
			RandomizationPercent: cfg.Monitor.RandomizationPercent,
			SeenListings:         seen.Len(),
			AIEnabled:            cfg.AI.Enabled,
		})
		if err := services.Countdown(ctx, os.Stdout, 3, ctxsleep.Sleep); err != nil {
			log.Info("Monitor stopped by user")
			return
		}
	}

	if opts.Once {
		if err := monitor.RunOnce(ctx); err != nil {
			log.Warnf("single cycle finished but state was not saved: %v", err)
		}
		return
	}

	if err := monitor.Run(ctx); err != nil {
		log.Errorf("monitor stopped with error: %v", err)
	}

	log.Info("Shutting down services...")
}
