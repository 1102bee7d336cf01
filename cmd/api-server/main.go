// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/apiserver/media"
	"course-market/internal/apiserver/server"
	"course-market/internal/config"
	"course-market/internal/shared/cache"
	cacheredis "course-market/internal/shared/cache/redis"
	"course-market/internal/shared/objstore"
	"course-market/internal/shared/storage/mongostore"
	"course-market/pkg/logging"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 configs/{env}.yaml）
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.Default("api-server")
	logger.Info("Starting API Server", "env", string(cfg.Env), "config", cfg.String())

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 开发环境空库时填充示例课程
	if cfg.IsDevelopment() {
		if err := store.SeedCourses(context.Background()); err != nil {
			log.Printf("Seed courses failed: %v", err)
		}
	}

	// 引导管理员账号（已存在则跳过）
	if err := auth.EnsureAdminUser(store, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	// 初始化目录缓存：未配置 Redis 时退化为 NoOp
	var catalog cache.Cache = cache.NewNoOpCache()
	if cfg.HasRedis() {
		redisCache, err := cacheredis.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, catalog cache disabled")
		} else {
			catalog = redisCache
		}
	}
	defer catalog.Close()

	// 初始化对象存储：未配置时上传接口返回 503
	var uploader media.Uploader
	if cfg.HasMinIO() {
		objClient, err := objstore.NewClient(cfg.MinIO, cfg.MediaURLPrefix)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}
		if err := objClient.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		uploader = objClient
		log.Println("Connected to MinIO")
	} else {
		log.Println("MinIO not configured, video upload disabled")
	}

	authCfg := auth.Config{
		JWTSecret:      cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}
	if err := authCfg.Validate(); err != nil {
		log.Fatalf("Invalid auth configuration: %v", err)
	}

	h := server.NewHandler(store, catalog, uploader, authCfg, cfg.MediaURLPrefix)

	// 存储层查询上报指标和慢查询日志
	metrics := h.GetMetrics()
	store.SetQueryObserver(func(operation, collection string, d time.Duration, err error) {
		metrics.RecordDBQuery(operation, collection, d)
		logger.DBQueryLog(operation, collection, d, err)
	})

	// 启动时上报目录规模和用户规模指标
	if n, err := store.CountCourses(context.Background()); err == nil {
		metrics.SetCatalogSize(int(n))
	}
	if n, err := store.CountUsers(context.Background()); err == nil {
		metrics.SetUserCount(int(n))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
