package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/provider"
	"github.com/Ramsey-B/fern/internal/repositories/service"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// app holds the connections shared by the serve and autolink commands.
type app struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup

	db       database.DB
	redis    *redis.Client
	producer *kafka.Producer
	graph    *graph.Client
}

func newApp(cfg *config.Config, logger ectologger.Logger) *app {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
	}

	var shutdownTracing func(context.Context) error
	a.startup.AddDependency(&startup.Dependency{
		Name: "tracing",
		OnStart: func(ctx context.Context) error {
			var err error
			shutdownTracing, err = tracing.Setup(ctx, tracing.Config{
				ServiceName: cfg.AppName,
				Exporter:    cfg.TraceExporter,
				SampleRatio: cfg.TraceSampleRatio,
				OTLP: exporters.OTLPConfig{
					Endpoint: cfg.TraceOTLPEndpoint,
					Protocol: cfg.TraceOTLPProtocol,
					Insecure: cfg.TraceOTLPInsecure,
				},
			})
			return err
		},
		OnStop: func(ctx context.Context) error {
			if shutdownTracing == nil {
				return nil
			}
			return shutdownTracing(ctx)
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name: "database",
		OnStart: func(ctx context.Context) error {
			db, err := database.Connect(ctx, a.databaseConfig(), logger)
			if err != nil {
				return err
			}
			a.db = db
			return nil
		},
		OnStop: func(context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	})

	if cfg.RedisEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: "redis",
			OnStart: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				if err != nil {
					return err
				}
				a.redis = client
				return nil
			},
			OnStop: func(context.Context) error {
				if a.redis == nil {
					return nil
				}
				return a.redis.Close()
			},
		})
	}

	if cfg.KafkaEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: "kafka",
			OnStart: func(context.Context) error {
				a.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			OnStop: func(context.Context) error {
				if a.producer == nil {
					return nil
				}
				return a.producer.Close()
			},
		})
	}

	if cfg.GraphDBEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: "graph",
			OnStart: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, logger)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					_ = client.Close(ctx)
					return fmt.Errorf("graph database unreachable: %w", err)
				}
				a.graph = client
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if a.graph == nil {
					return nil
				}
				return a.graph.Close(ctx)
			},
		})
	}

	return a
}

func (a *app) databaseConfig() database.Config {
	return database.Config{
		Driver:          a.cfg.DatabaseDriver,
		Host:            a.cfg.DatabaseHost,
		Port:            a.cfg.DatabasePort,
		UserName:        a.cfg.DatabaseUserName,
		Password:        a.cfg.DatabasePassword,
		Name:            a.cfg.DatabaseName,
		SSLMode:         a.cfg.DatabaseSSLMode,
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	}
}

func (a *app) migrations() *database.MigrationService {
	return database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
}

// addMigrations runs migrations once the database is reachable.
func (a *app) addMigrations() {
	a.startup.AddDependency(&startup.Dependency{
		Name:     "migrations",
		Requires: []string{"database"},
		OnStart: func(ctx context.Context) error {
			return a.migrations().Migrate(ctx, a.databaseConfig())
		},
	})
}

func (a *app) start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

func (a *app) stop(ctx context.Context) {
	if err := a.startup.Stop(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to stop dependencies cleanly")
	}
}

// orchestrator wires the Postgres stores, run lock and observers. Call after start.
func (a *app) orchestrator() *linking.Orchestrator {
	var locker linking.RunLocker
	if a.redis != nil {
		locker = redis.NewRunLocker(redis.NewLocker(a.redis, ""))
	}

	var observers []linking.Observer
	if a.producer != nil {
		observers = append(observers, events.NewEmitter(a.producer, a.logger))
	}
	if a.graph != nil {
		observers = append(observers, graph.NewProjector(a.graph, a.logger))
	}

	return linking.NewOrchestrator(
		a.logger,
		service.NewRepository(a.db, a.logger),
		provider.NewRepository(a.db, a.logger),
		a.db,
		locker,
		linkingConfig(a.cfg),
		observers...,
	)
}

func linkingConfig(cfg *config.Config) linking.Config {
	return linking.Config{
		Matching: matching.Config{
			Threshold:             cfg.MatchThreshold,
			ParallelMinCandidates: cfg.MatchParallelMinCandidates,
			ChunkSize:             cfg.MatchChunkSize,
		},
		Blocking: cfg.MatchNgramBlocking,
		LockKey:  cfg.AutoLinkLockKey,
		LockTTL:  cfg.AutoLinkLockTTL,
	}
}

func (a *app) healthChecks() map[string]health.Pinger {
	checks := map[string]health.Pinger{}
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.redis != nil {
		checks["redis"] = health.PingerFunc(a.redis.Ping)
	}
	if a.graph != nil {
		checks["graph"] = health.PingerFunc(a.graph.VerifyConnectivity)
	}
	return checks
}
