package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rivergauge-server/internal/config"
	"rivergauge-server/internal/db"
	"rivergauge-server/internal/httpapi"
	"rivergauge-server/internal/identity"
	"rivergauge-server/internal/metrics"
	"rivergauge-server/internal/migrate"
	"rivergauge-server/internal/modules/favorites"
	favservice "rivergauge-server/internal/modules/favorites/service"
	"rivergauge-server/internal/modules/stations"
	"rivergauge-server/internal/modules/stations/status"
	"rivergauge-server/internal/mqtt"
	"rivergauge-server/pkg/usgs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.SQLitePath,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogSQL", cfg.LogSQL,
		"usgsBaseURL", cfg.USGSBaseURL,
		"usgsTimeout", cfg.USGSTimeout,
		"usgsCacheTTL", cfg.USGSCacheTTL,
		"jwtEnabled", cfg.JWTSecret != "",
		"statusPolicyFile", cfg.StatusPolicyFile,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
		"metricsEnabled", cfg.MetricsEnabled,
	)

	dialect, err := db.DialectFor(cfg.Driver)
	if err != nil {
		return err
	}
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn, dialect); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRowContext(ctx, `SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful", "dialect", dialect)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if m, err = metrics.New(reg); err != nil {
			return err
		}
	}

	policies := status.Defaults()
	if cfg.StatusPolicyFile != "" {
		if policies, err = status.Load(cfg.StatusPolicyFile); err != nil {
			return err
		}
	}

	favoriteOpts := []favservice.Option{
		favservice.WithMetrics(m),
		favservice.WithLogger(slog.Default()),
	}

	// Favorite events are best effort: without a broker, or when it is
	// down at startup, the API still works.
	var publisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		publisher = mqtt.NewPublisher(mqtt.OptionsFromConfig(cfg), slog.Default())
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing, paho keeps retrying)", "error", err)
		}
		favoriteOpts = append(favoriteOpts, favservice.WithPublisher(publisher))
	}

	mux := httpapi.NewMux(dbConn, m)
	favoritesService, err := favorites.RegisterFeature(mux, dbConn, dialect, favoriteOpts...)
	if err != nil {
		return err
	}

	usgsClient := usgs.NewClient(
		usgs.Config{BaseURL: cfg.USGSBaseURL, Timeout: cfg.USGSTimeout, CacheTTL: cfg.USGSCacheTTL},
		usgs.WithObserver(m),
		usgs.WithLogger(slog.Default()),
	)
	source := identity.New(cfg.JWTSecret, cfg.DefaultUserID)
	if _, err := stations.RegisterFeature(mux, usgsClient, policies, favoritesService, source, slog.Default()); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, mux, m)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if publisher != nil {
		slog.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
