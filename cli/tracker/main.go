package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/api"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/config"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/dedupe"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/domain"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hazard"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hub"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store/postgres"
	redisstore "github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store/redis"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/subscriber"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/robfig/cron/v3"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "")
	flag.Parse()

	settings, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Reading config failed: %v", err)
	}

	configureLogging(settings)

	fixes, telemetry, alerts, zoneSource, closeStores := buildStores(settings)
	defer closeStores()

	index := hazard.NewIndex(zoneSource)
	if err := index.Reload(context.Background()); err != nil {
		log.Fatalf("Loading hazard zones failed: %v", err)
	}

	guard := dedupe.NewGuard(settings.GetDedupeWindow())

	h := hub.New(settings.SessionQueueCapacity, settings.GetPingInterval(), domain.RoomGate{})

	tracker := domain.New(
		domain.Params{
			AlertRadiusM:    settings.AlertRadiusM,
			ActiveFreshness: settings.GetActiveFreshness(),
			HistoryTTL:      settings.GetHistoryTTL(),
			AlertRetention:  settings.GetAlertRetention(),
			EtaAvgSpeedKmh:  settings.EtaAvgSpeedKmh,
		},
		fixes, telemetry, alerts, index, guard, h,
	).WithZoneStore(zoneSource)

	wireStateMirror(tracker, settings)
	asyncMirror := wireEventMirrors(tracker, settings)
	if asyncMirror != nil {
		defer asyncMirror.Close()
	}

	if len(settings.MQTT) > 0 {
		sub, err := subscriber.New(settings.MQTT, tracker, settings.GetRequestDeadline())
		if err != nil {
			log.Fatalf("MQTT ingest failed to start: %v", err)
		}
		if err := sub.Start(); err != nil {
			log.Fatalf("MQTT subscription failed: %v", err)
		}
		defer sub.Close()
	}

	scheduleMaintenance(tracker)

	handler := api.NewHandler(tracker, h, settings.GetRequestDeadline())
	controller := api.NewController(handler, settings.APIKeys)

	log.Infof("Tracking API listening on %s", settings.GetListenAddress())
	if err := controller.Run(settings.GetListenAddress()); err != nil {
		log.Fatal(err)
	}
}

func getConfig(configFilePath string) (config.Settings, error) {
	if configFilePath == "" {
		return config.Settings{}, &util.ErrorString{S: "config path not set"}
	}

	c, err := config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("parsing config: %v", err)
	}
	return c, nil
}

func configureLogging(settings config.Settings) {
	log.SetLevel(settings.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if settings.LogFilePath != "" {
		logDir := filepath.Dir(settings.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Creating log directory failed: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   settings.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     settings.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}

// buildStores picks the durable backing: postgres when configured, in-memory
// otherwise. The returned closer is a no-op for the memory stores.
func buildStores(settings config.Settings) (store.FixStore, store.TelemetryStore, store.AlertStore, store.ZoneStore, func()) {
	pgCfg, ok := settings.Store["postgresql"]
	if !ok {
		log.Warn("no postgresql section configured, state is in-memory only")
		return store.NewMemoryFixStore(settings.HistoryCapPerVehicle),
			store.NewMemoryTelemetryStore(settings.HistoryCapPerVehicle),
			store.NewMemoryAlertStore(),
			store.NewMemoryZoneStore(nil),
			func() {}
	}

	applyMigrations(settings, pgCfg)

	source, err := postgres.New(pgCfg)
	if err != nil {
		log.Fatalf("Connecting to postgres failed: %v", err)
	}

	return source.Fixes(), source.Telemetry(), source.Alerts(), source.Zones(), func() {
		if err := source.Close(); err != nil {
			log.WithError(err).Warn("closing postgres connection")
		}
	}
}

func wireStateMirror(tracker *domain.Tracker, settings config.Settings) {
	redisCfg, ok := settings.Store["redis"]
	if !ok {
		return
	}

	mirror, err := redisstore.New(context.Background(), redisCfg)
	if err != nil {
		log.Fatalf("Connecting to redis failed: %v", err)
	}
	tracker.WithStateMirror(mirror)
	log.Info("redis state mirror enabled")
}

func wireEventMirrors(tracker *domain.Tracker, settings config.Settings) *storage.AsyncRepository {
	repo := storage.NewRepository()
	if err := repo.LoadStorages(settings.Store); err != nil {
		if err == storage.ErrInvalidStorage {
			return nil
		}
		log.Fatalf("Loading event mirrors failed: %v", err)
	}
	if repo.Len() == 0 {
		return nil
	}

	async := storage.NewAsyncRepository(repo, 1024, 4)
	tracker.WithMirror(async)
	log.Infof("event mirroring enabled, %d sinks", repo.Len())
	return async
}

func scheduleMaintenance(tracker *domain.Tracker) {
	c := cron.New()
	c.AddFunc("@every 5m", func() { tracker.ReloadZones(context.Background()) })
	c.AddFunc("@every 1m", func() { tracker.SweepDedupe() })
	c.AddFunc("@hourly", func() { tracker.PurgeHistory(context.Background()) })
	c.AddFunc("@daily", func() { tracker.PurgeAlerts(context.Background()) })
	c.Start()
	log.Info("maintenance jobs scheduled")
}

func applyMigrations(settings config.Settings, pgCfg map[string]string) {
	if settings.MigrationsPath == "" {
		return
	}

	databaseUrl := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		pgCfg["user"], pgCfg["password"], pgCfg["host"], pgCfg["port"], pgCfg["database"], pgCfg["sslmode"])

	m, err := migrate.New(settings.MigrationsPath, databaseUrl)
	if err != nil {
		log.Fatalf("Initialising migrations failed: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("no new migrations to apply")
			return
		}
		log.Fatalf("Applying migrations failed: %v", err)
	}
	log.Info("migrations applied")
}
