package protocal

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-session-cache/configs"
	httpAdapter "booking-session-cache/internal/adapters/input/http"
	"booking-session-cache/internal/adapters/output/codec"
	"booking-session-cache/internal/adapters/output/httpdispatch"
	"booking-session-cache/internal/adapters/output/metrics"
	"booking-session-cache/internal/application"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	configs.InitViper("./configs", cfg.ENV)
	conf := configs.GetViper()
	logrus.Info(conf.Env)

	app := fiber.New(fiber.Config{ErrorHandler: httpAdapter.ErrorHandler})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))

	// Wire up the hexagonal architecture layers
	// Output adapters (durable storage + codec)
	storage, err := newDurableStorage(conf)
	if err != nil {
		return err
	}
	store := codec.NewSessionCodec(storage, conf.Storage.Key)

	// Application service (session), loaded from the persisted blob
	sessions := application.NewSessionManager(store)

	// Output adapter (dispatcher) consulting the session for credentials
	dispatcher, err := httpdispatch.NewHTTPDispatcher(conf.Transport, sessions)
	if err != nil {
		storage.close()
		return err
	}

	// Request cache with prometheus observer
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	retention := application.DefaultRetention
	if conf.Cache.Retention > 0 {
		retention = time.Duration(conf.Cache.Retention) * time.Second
	}
	cache := application.NewRequestCache(dispatcher,
		application.WithRetention(retention),
		application.WithObserver(metrics.NewCacheMetrics(registry)),
	)
	// a failed token refresh drops everything cached for the old identity
	dispatcher.OnSessionExpired(cache.Reset)

	// Application service (use cases) and input adapter (HTTP handler)
	srv := application.NewMarketplaceService(cache, sessions)
	hdl := httpAdapter.New(srv, sessions, storage.health)
	hdl.Register(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range c {
			logrus.Println("Gracefull shut down ...")
			err := app.Shutdown()
			if err != nil {
				logrus.Println("Error when shutdown server: ", err)
			}
		}
	}()

	logrus.Println("Listerning on port: ", conf.App.Port)
	err = app.Listen(":" + conf.App.Port)
	cache.Close()
	storage.close()
	if err != nil {
		return err
	}
	return nil
}
