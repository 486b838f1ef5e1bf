package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/stockroom-app/stockroom/api/rest"
	"github.com/stockroom-app/stockroom/audit"
	"github.com/stockroom-app/stockroom/cache"
	"github.com/stockroom-app/stockroom/config"
	dbadapter "github.com/stockroom-app/stockroom/db"
	"github.com/stockroom-app/stockroom/inventory"
	mw "github.com/stockroom-app/stockroom/middleware"
	"github.com/stockroom-app/stockroom/model"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Upload.APIKey == "" {
		logger.Warn("upload.api_key is not set; image uploads will fail")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Handlers ----
	repo := inventory.NewRepo(db)
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	invH := apirest.NewInventoryHandler(repo, auditSvc)
	uploadH := apirest.NewUploadHandler(cfg.Upload, logger)

	// ---- Router ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID())
	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.POST("/api/auth/register", authH.Register)
	r.POST("/api/auth/login", authH.Login)
	r.POST("/api/auth/logout", authH.Logout)

	auth := r.Group("/api", mw.Auth(cfg.Security, c))
	auth.POST("/auth/refresh", authH.Refresh)
	auth.GET("/inventory", invH.List)
	auth.POST("/inventory", invH.Create)
	auth.PATCH("/inventory/:id", invH.Update)
	auth.DELETE("/inventory/:id", invH.Delete)
	auth.POST("/upload", uploadH.Upload)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
