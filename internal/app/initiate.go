package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/throttle"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	tz := cfg.GetString("app.tz")
	if tz == "" {
		tz = "UTC"
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", tz)

	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Error("failed to load time zone", "tz", tz, "error", err)
		os.Exit(1)
	}

	a.config = cfg
	a.location = loc
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:          a.config.GetString("instrument.log_level"),
		MaskFields:        a.config.GetArray("instrument.log_mask_fields"),
		PartialMaskFields: a.config.GetArray("instrument.log_partial_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	//nolint:gosec // pool sizes are small config values
	config.MaxConns = int32(a.config.GetInt("database.pool.max_conns"))
	//nolint:gosec // pool sizes are small config values
	config.MinConns = int32(a.config.GetInt("database.pool.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

// initCache connects to redis only when a store is configured to use it.
func (a *App) initCache() {
	if a.config.GetString("throttle.driver") != throttle.DriverRedis &&
		a.config.GetString("lock.driver") != lock.DriverRedis {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initThrottle() {
	driver := strings.TrimSpace(a.config.GetString("throttle.driver"))
	switch driver {
	case throttle.DriverRedis:
		store := throttle.NewRedis(a.cacheConn, a.clock, a.location)
		a.window = store
		a.daily = store
	case throttle.DriverMemory, "":
		interval := a.config.GetMinute("throttle.memory.sweep_interval_minutes")
		window := throttle.NewMemoryWindow(a.clock, interval)
		daily := throttle.NewMemoryDaily(a.clock, a.location, interval)

		a.goroutine.Go(a.ctx, "throttle-window-sweeper", window.Run)
		a.goroutine.Go(a.ctx, "throttle-daily-sweeper", daily.Run)

		a.window = window
		a.daily = daily
		a.sweepers = append(a.sweepers, window, daily)
	default:
		slog.Error("failed to init throttle, unknown driver", "driver", driver)
		os.Exit(1)
	}
}

func (a *App) initLock() {
	driver := strings.TrimSpace(a.config.GetString("lock.driver"))
	switch driver {
	case lock.DriverRedis:
		a.locker = lock.NewRedis(a.cacheConn, a.uuid, lock.RedisConfig{
			TTL:           a.config.GetSecond("lock.redis.ttl_seconds"),
			RetryInterval: time.Duration(a.config.GetInt("lock.redis.retry_interval_ms")) * time.Millisecond,
		})
	case lock.DriverMemory, "":
		a.locker = lock.NewMemory()
	default:
		slog.Error("failed to init lock, unknown driver", "driver", driver)
		os.Exit(1)
	}
}

func (a *App) initSMS() {
	driver := a.config.GetString("sms.driver")
	client, err := sms.NewFromDriver(driver, sms.FactoryOptions{
		HTTP: sms.HTTPConfig{
			URL:      a.config.GetString("sms.http.url"),
			APIKey:   a.config.GetString("sms.http.api_key"),
			Sender:   a.config.GetString("sms.http.sender"),
			Timeout:  a.config.GetSecond("sms.http.timeout_seconds"),
			Attempts: a.config.GetInt("sms.http.attempts"),
		},
		SMTP: sms.SMTPConfig{
			Host:     a.config.GetString("sms.smtp.host"),
			Port:     a.config.GetInt("sms.smtp.port"),
			Username: a.config.GetString("sms.smtp.username"),
			Password: a.config.GetString("sms.smtp.password"),
			From:     a.config.GetString("sms.smtp.from"),
			Domain:   a.config.GetString("sms.smtp.domain"),
		},
	})
	if err != nil {
		slog.Error("failed to init sms", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.sms = client
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			//nolint:gosec // attempts is a small config value
			MaxAttempts: uint16(a.config.GetInt("messaging.nsq.max_attempts")),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsFile: a.config.GetString("messaging.pubsub.credentials_file"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "RetentionJob",
			fn: func(context.Context) error {
				if a.retention != nil {
					return a.retention.Close()
				}

				return nil
			},
		},
		{
			name: "ThrottleSweeper",
			fn: func(context.Context) error {
				var errs []error
				for _, sw := range a.sweepers {
					errs = append(errs, sw.Close())
				}

				return errors.Join(errs...)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn != nil {
					return a.cacheConn.Close()
				}

				return nil
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
