package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"cafeorders/internal/config"
	"cafeorders/internal/events"
	"cafeorders/internal/http/handlers"
	applog "cafeorders/internal/log"
	"cafeorders/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	out, closeLog, err := applog.Writer(cfg.LogFile)
	if err != nil {
		log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
	}
	defer closeLog()
	log.SetOutput(out)
	applog.SetOutput(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store repos.DocStore
		carts repos.CartStore
	)
	switch cfg.StoreBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("[redis] %s: %v", cfg.RedisAddr, err)
		}
		store = repos.NewRedisStore(rdb)
		carts = repos.NewRedisCarts(rdb, cfg.CartTTL)
	default:
		s, err := repos.OpenSQLStore(cfg.DBDSN)
		if err != nil {
			log.Fatal(err)
		}
		store = s
		carts = repos.NewMemoryCarts()
	}
	defer store.Close()

	if n, err := repos.SeedMenu(ctx, store, cfg.MenuFile); err != nil {
		log.Printf("[seed] %v", err)
	} else if n > 0 {
		log.Printf("[seed] %d products added", n)
	}

	pub := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer pub.Close()

	deps := handlers.NewDeps(ctx, store, carts, pub, cfg)
	if err := deps.Catalog.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer deps.Catalog.Stop()

	app := handlers.NewApp(deps, handlers.AppOptions{
		TemplatesDir: cfg.TemplatesDir,
		StaticDir:    "./web/static",
		Reload:       true,
		AccessLog:    true,
	})

	go func() {
		<-ctx.Done()
		log.Printf("[server] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
