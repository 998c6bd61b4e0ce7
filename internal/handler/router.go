package handler

import (
	"campaignledger/internal/config"
	"campaignledger/internal/guard"
	"campaignledger/internal/progression"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, g guard.Guard, tables progression.Tables, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, g, tables, cfg)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 角色相关
		character := api.Group("/character")
		{
			character.GET("/info", h.GetCharacter)
			character.POST("/create", h.CreateCharacter)
		}

		// 物品目录
		catalog := api.Group("/catalog")
		{
			catalog.GET("/item", h.GetItem)
			catalog.GET("/list", h.ListItems)
		}

		// 购买相关
		market := api.Group("/market")
		{
			market.POST("/purchase", h.Purchase)
			market.GET("/log", h.ListMarketLog)
		}

		// 跑团记录
		game := api.Group("/game")
		{
			game.POST("/log", h.LogGame)
			game.GET("/log", h.ListGameLog)
		}

		// 运维
		admin := api.Group("/admin")
		{
			admin.GET("/reconcile/manual", h.ListManualReconciliations)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
