package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/config"
	"taskflow/handlers"
	"taskflow/store/factory"
	"taskflow/utils"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Println("environment:", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := factory.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := utils.OpenRedisPool(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	mailer := utils.NewMailer(cfg.SendGridAPIKey, cfg.MailFrom)
	app := handlers.NewApp(db, redisClient, mailer, utils.SessionOptions{
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure || cfg.Production(),
	})

	limiter := handlers.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Prune(3 * time.Minute)
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(cfg.StaticDir, limiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("Starting server on", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
