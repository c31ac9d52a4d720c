package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/chessledger/chessledger/app/repository"
	apiv1 "github.com/chessledger/chessledger/internal/api/v1"
	"github.com/chessledger/chessledger/internal/pkg/cache"
	"github.com/chessledger/chessledger/internal/pkg/chesscom"
	"github.com/chessledger/chessledger/internal/pkg/database"
	"github.com/chessledger/chessledger/internal/pkg/env"
	"github.com/chessledger/chessledger/internal/pkg/lichess"
	"github.com/chessledger/chessledger/internal/pkg/ratelimit"
	"github.com/chessledger/chessledger/internal/pkg/router"
	"github.com/chessledger/chessledger/internal/pkg/syncengine"
)

func main() {
	app, stop := NewApplication()

	// drain the listener on SIGINT/SIGTERM, the sync machinery stops after
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	scheduler := ratelimit.NewScheduler(ratelimit.LoadConfigs())
	scheduler.Start()

	engine := syncengine.NewService(repos,
		chesscom.NewClientFromEnv(scheduler),
		lichess.NewClientFromEnv(scheduler),
	)
	engine.RecoverInterrupted()

	cronScheduler := syncengine.NewCronScheduler(engine)
	if err := cronScheduler.Start(); err != nil {
		log.Fatal(err)
	}

	// init fiber app
	app := fiber.New()

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASS", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app, apiv1.NewAPIServer(engine, scheduler))

	stop := func() {
		cronScheduler.Stop()
		scheduler.Stop()
	}
	return app, stop
}
