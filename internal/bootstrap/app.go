package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"online-shopping/internal/config"
	"online-shopping/internal/platform/database"
	rabbitmqClient "online-shopping/internal/platform/rabbitmq"
	redisClient "online-shopping/internal/platform/redis"
	"online-shopping/internal/repository"
	"online-shopping/internal/worker"
)

// App holds the process-wide clients. Redis and MQConn are nil when disabled.
type App struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	SoldOutWorker *worker.SoldOutEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, StartedAt: time.Now()}

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	app.DB = db
	if err := database.Migrate(db); err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn

		eventRepo := repository.NewSoldOutEventRepository(db)
		soldOutWorker := worker.NewSoldOutEventWorker(mqConn, eventRepo, cfg.RabbitMQ.SoldOutQueue)
		if err := soldOutWorker.Start(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("start sold out worker failed: %w", err)
		}
		app.SoldOutWorker = soldOutWorker
	}

	log.Printf("bootstrap done: database=%s redis=%t rabbitmq=%t",
		cfg.Database.Driver, cfg.Redis.Enabled, cfg.RabbitMQ.Enabled)
	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.SoldOutWorker != nil {
		a.SoldOutWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
