package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mkraev/veloshop/internal/config"
	"github.com/mkraev/veloshop/internal/events"
	"github.com/mkraev/veloshop/internal/httpserver"
	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/repo"
	"github.com/mkraev/veloshop/internal/search"
	"github.com/mkraev/veloshop/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(httpserver.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DBPath)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("data dir error: %v", err)
	}

	rp := &repo.GormRepo{DB: db}

	var searchClient *search.Client
	if cfg.ESURL != "" {
		searchClient, err = search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer(cfg.KafkaAddress)
	}

	auditSvc := &service.AuditService{Repo: rp, Producer: producer}
	authSvc := &service.AuthService{Repo: rp, JWTSecret: cfg.JWTSecret, RefreshSecret: cfg.RefreshSecret}
	userSvc := &service.UserService{Repo: rp}
	productSvc := &service.ProductService{Repo: rp, DataDir: cfg.DataDir, Search: searchClient}
	categorySvc := &service.CategoryService{Repo: rp}
	cartSvc := &service.CartService{Repo: rp}
	discountSvc := &service.DiscountService{Repo: rp, DataDir: cfg.DataDir}

	bootCtx := logging.IntoContext(context.Background(), logger)
	if err := userSvc.EnsureDefaultAdmin(bootCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("admin bootstrap error: %v", err)
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth:            &httpserver.AuthHTTP{Svc: authSvc, Audit: auditSvc},
		Store:           &httpserver.StoreHTTP{Svc: productSvc},
		Cart:            &httpserver.CartHTTP{Svc: cartSvc, Audit: auditSvc},
		Discounts:       &httpserver.DiscountHTTP{Svc: discountSvc, Audit: auditSvc},
		AdminProducts:   &httpserver.AdminProductHTTP{Svc: productSvc, Audit: auditSvc},
		AdminCategories: &httpserver.AdminCategoryHTTP{Svc: categorySvc, Audit: auditSvc},
		AdminUsers:      &httpserver.AdminUserHTTP{Svc: userSvc, Audit: auditSvc},
		AdminDiscounts:  &httpserver.AdminDiscountHTTP{Svc: discountSvc, Audit: auditSvc},
		AdminAudit:      &httpserver.AdminAuditHTTP{Svc: auditSvc},
		JWTSecret:       cfg.JWTSecret,
	})

	go func() {
		log.Printf("Starting veloshop on port %s...", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close: %v", err)
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}

	log.Println("Server stopped")
}
