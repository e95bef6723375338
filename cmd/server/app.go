package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"

	"zippty/order-service/internal/conf"
	httpapi "zippty/order-service/internal/controllers/http"
	"zippty/order-service/internal/infra"
	"zippty/order-service/internal/infra/cache"
	"zippty/order-service/internal/infra/events"
	"zippty/order-service/internal/infra/kafka"
	"zippty/order-service/internal/infra/lock"
	mongoinfra "zippty/order-service/internal/infra/mongo"
	mysqlinfra "zippty/order-service/internal/infra/mysql"
	"zippty/order-service/internal/infra/payment"
	"zippty/order-service/internal/infra/rabbitmq"
	"zippty/order-service/internal/repository"
	mongorepo "zippty/order-service/internal/repository/mongo"
	mysqlrepo "zippty/order-service/internal/repository/mysql"
	"zippty/order-service/internal/services"
)

// newApp builds every dependency once. cleanup releases them in reverse order.
func newApp(ctx context.Context, c *conf.Bootstrap, logger log.Logger) (*gin.Engine, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "main"))
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(what string, err error) (*gin.Engine, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", what, err)
	}

	var (
		orders   repository.OrderRepository
		accounts repository.AccountRepository
	)
	switch c.Database.Driver {
	case conf.DriverMongo:
		client, db, err := mongoinfra.NewMongo(ctx, c.Database.Mongo)
		if err != nil {
			return fail("mongo: connect", err)
		}
		closers = append(closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				helper.Errorf("mongo: disconnect: %v", err)
			}
		})
		orders = mongorepo.NewOrderRepository(db, logger)
		accounts = mongorepo.NewAccountRepository(db)
	default:
		db, err := mysqlinfra.NewMySQL(c.Database.MySQL)
		if err != nil {
			return fail("db: connect", err)
		}
		closers = append(closers, func() {
			if err := mysqlinfra.Close(db); err != nil {
				helper.Errorf("db: close: %v", err)
			}
		})
		orders = mysqlrepo.NewOrderRepository(db, logger)
		accounts = mysqlrepo.NewAccountRepository(db)
	}

	locker := lock.NewLocalLocker()
	orderCache := cache.NewNoopCache()
	if c.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, c.Redis)
		if err != nil {
			return fail("redis: connect", err)
		}
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				helper.Errorf("redis: close: %v", err)
			}
		})
		locker = lock.NewRedisLocker(rdb, c.Orders.LockTTL)
		orderCache = cache.NewRedisCache(rdb, c.Orders.CacheTTL, logger)
	} else {
		helper.Warn("redis disabled: using in-process order locks, list cache off")
	}

	publisher, err := newPublisher(c.Events, logger)
	if err != nil {
		return fail("events: init publisher", err)
	}
	closers = append(closers, func() {
		if err := publisher.Close(); err != nil {
			helper.Errorf("events: close publisher: %v", err)
		}
	})

	provider := infra.NewRazorpayClient(c.Payment.BaseURL, c.Payment.KeyID, c.Payment.KeySecret, c.Payment.Timeout)
	svc := services.NewOrderService(
		orders,
		accounts,
		provider,
		payment.NewVerifier(c.Payment.KeySecret),
		locker,
		publisher,
		c.Payment.Currency,
		logger,
	)
	svc.SetCache(orderCache)

	gin.SetMode(gin.ReleaseMode)
	return httpapi.NewRouter(httpapi.NewHandler(svc, c.Auth.JWTSecret), logger), cleanup, nil
}

func newPublisher(c conf.Events, logger log.Logger) (events.Publisher, error) {
	switch c.Broker {
	case conf.BrokerRabbitMQ:
		p, err := rabbitmq.NewPublisher(c.RabbitMQ.URL, c.RabbitMQ.Exchange, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case conf.BrokerKafka:
		p, err := kafka.NewProducer(c.Kafka.Brokers, c.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return events.NewNoop(), nil
	}
}
