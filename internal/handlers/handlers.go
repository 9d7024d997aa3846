package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"receiptbook/api/internal/authz"
	"receiptbook/api/internal/config"
	"receiptbook/api/internal/middleware"
	"receiptbook/api/internal/repository"
	"receiptbook/api/internal/service"
	"receiptbook/api/internal/storage"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	authService   *service.AuthService
	exportService *service.ExportService
	db            *pgxpool.Pool
	cache         *redis.Client
	users         *repository.UserRepository
	receipts      *repository.ReceiptRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	auth := service.NewAuthService(userRepo, roleRepo, tokenRepo, cfg, log)
	export := service.NewExportService(receiptRepo, store, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		authService:   auth,
		exportService: export,
		db:            db,
		cache:         cache,
		users:         userRepo,
		receipts:      receiptRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", middleware.LoginRateLimit(h.cfg.RateLimit, h.cache, h.log), h.Login)
		auth.POST("/register", h.RegisterUser)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.users))
		protected.GET("/me", h.Me)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.Auth(h.cfg, h.users))
	admin.GET("/users",
		middleware.Require(middleware.Requirement{Permission: authz.PermManageUsers}), h.ListUsers)
	admin.POST("/users",
		middleware.Require(middleware.Requirement{Permission: authz.PermManageUsers}), h.CreateUser)
	admin.PATCH("/users/:id",
		middleware.Require(middleware.Requirement{Permission: authz.PermManageUsers}), h.UpdateUser)
	admin.GET("/roles",
		middleware.Require(middleware.Requirement{Permission: authz.PermManageRoles}), h.ListRoles)
	admin.POST("/roles",
		middleware.Require(middleware.Requirement{Permission: authz.PermManageRoles}), h.CreateRole)

	receipts := v1.Group("/receipts")
	receipts.Use(middleware.Auth(h.cfg, h.users))
	receipts.GET("",
		middleware.Require(middleware.Requirement{Permission: authz.PermReadReceipts}), h.ListReceipts)
	receipts.GET("/export",
		middleware.Require(middleware.Requirement{Permission: authz.PermExportReceipts}), h.ExportReceipts)
	receipts.GET("/:id",
		middleware.Require(middleware.Requirement{Permission: authz.PermReadReceipts}), h.GetReceipt)
	receipts.POST("",
		middleware.Require(middleware.Requirement{Permission: authz.PermCreateReceipts}), h.CreateReceipt)
	receipts.PUT("/:id",
		middleware.Require(middleware.Requirement{Permission: authz.PermUpdateReceipts, Owner: h.receiptOwner}), h.UpdateReceipt)
	receipts.DELETE("/:id",
		middleware.Require(middleware.Requirement{Permission: authz.PermDeleteReceipts, Owner: h.receiptOwner}), h.DeleteReceipt)
}
