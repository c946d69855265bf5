package handler

import (
	"investsystem/internal/config"
	"investsystem/internal/infrastructure/lock"
	"investsystem/internal/repository"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置路由
func SetupRouter(store repository.TxStore, locks lock.Factory, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(store, locks, cfg)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 认证与会话
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/session", h.Session)
		}

		// 套餐目录
		api.GET("/plans", h.ListPlans)

		// 投资相关
		invest := api.Group("/invest")
		{
			invest.POST("/execute", h.Invest)
			invest.GET("/list", h.ListInvestments)
		}

		// 提现相关
		withdraw := api.Group("/withdraw")
		{
			withdraw.POST("/request", h.RequestWithdrawal)
			withdraw.GET("/list", h.ListWithdrawals)
		}

		// 个人资料
		profile := api.Group("/profile")
		{
			profile.POST("/bank", h.SaveBankAccount)
		}

		// 管理端
		admin := api.Group("/admin")
		{
			admin.POST("/login", h.AdminLogin)
			admin.POST("/withdraw/resolve", h.ResolveWithdrawal)
			admin.POST("/user/field", h.SetUserField)
			admin.GET("/users", h.AdminListUsers)
			admin.GET("/withdrawals", h.AdminListWithdrawals)
			admin.GET("/stats", h.AdminStats)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
