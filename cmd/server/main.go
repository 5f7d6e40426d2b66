package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"customerapp/internal/auth"
	"customerapp/internal/config"
	"customerapp/internal/dashboard"
	mydb "customerapp/internal/db"
	"customerapp/internal/events"
	"customerapp/internal/handlers"
	"customerapp/internal/logger"
	"customerapp/internal/mailer"
	"customerapp/internal/products"
	"customerapp/internal/router"
	"customerapp/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	flush, err := logger.Init(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}
	defer flush()

	db := mydb.MustOpen(cfg.Database)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// product writes publish on the bus; the coordinator keeps dashboards in step
	bus := events.NewBus()
	repo := products.NewRepository(db, bus)
	coord := dashboard.NewCoordinator(dashboard.NewStore(db, repo))
	if err := coord.Attach(bus); err != nil {
		zap.L().Fatal("subscribe dashboard coordinator", zap.Error(err))
	}

	h := handlers.New(handlers.Deps{
		DB:               db,
		Products:         repo,
		Dashboards:       coord,
		Issuer:           auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Mailer:           mailer.New(cfg.SMTP),
		Uploads:          uploads.NewStore(cfg.UploadDir),
		PublicURL:        cfg.PublicURL,
		ResetPasswordURL: cfg.ResetPasswordURL,
	})
	r := router.New(h, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		SessionSecret:  cfg.SessionSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zap.L().Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("shutdown", zap.Error(err))
	}
}
