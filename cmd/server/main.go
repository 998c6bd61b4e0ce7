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

	"campaignledger/internal/config"
	"campaignledger/internal/guard"
	"campaignledger/internal/handler"
	"campaignledger/internal/infrastructure/cache"
	"campaignledger/internal/infrastructure/database"
	"campaignledger/internal/infrastructure/mq"
	"campaignledger/internal/job"
	"campaignledger/internal/progression"
	"campaignledger/pkg/idgen"
)

func main() {
	// 加载配置
	cfg := config.LoadConfig("config/config.yaml")

	// 成长表启动时校验一次，配置错误直接退出
	tables, err := progression.FromConfig(cfg.Progression)
	if err != nil {
		log.Fatalf("成长表校验失败: %v", err)
	}

	// 初始化 ID 生成器
	idgen.Init(1)

	// 初始化 MySQL
	db := database.InitMySQL(&cfg.MySQL)

	// 初始化 Redis
	redisClient := cache.InitRedis(&cfg.Redis)

	// 初始化 Kafka
	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	// 角色锁（跨实例互斥）
	characterGuard := guard.NewRedisGuard(redisClient, time.Duration(cfg.Business.LockTTLSeconds)*time.Second)

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	announcer := job.NewAnnouncer(db, cfg)
	go announcer.Start(ctx)

	reconciler := job.NewReconciler(db, cfg)
	go reconciler.Start(ctx)

	// 设置路由
	router := handler.SetupRouter(db, redisClient, characterGuard, tables, cfg)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	log.Println("服务已关闭")
}
