package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"modelhaus/api/internal/config"
	"modelhaus/api/internal/middleware"
	"modelhaus/api/internal/processing"
	"modelhaus/api/internal/repository"
	"modelhaus/api/internal/service"
	"modelhaus/api/internal/storage"
	"modelhaus/api/internal/uploadflow"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	productService *service.ProductService
	catalogService *service.CatalogService
	processor      *processing.Client
	flows          *uploadflow.Registry
	db             *pgxpool.Pool
	cache          *redis.Client
	profiles       *repository.ProfileRepository
	sessions       *repository.SessionRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	mongoClient *mongo.Client,
	cache *redis.Client,
	store *storage.ObjectStore,
	flows *uploadflow.Registry,
	cfg *config.AppConfig,
) HandlerSet {
	profileRepo := repository.NewProfileRepository(mongoClient, cfg.Mongo.ProfileDB)
	productRepo := repository.NewProductRepository(mongoClient, cfg.Mongo.ProductDB)
	sessionRepo := repository.NewSessionRepository(db)
	auth := service.NewAuthService(profileRepo, sessionRepo, cfg, log)
	products := service.NewProductService(profileRepo, productRepo, store, cfg.Upload, log)
	catalogSvc := service.NewCatalogService(cache, cfg.Catalog, log)
	processor := processing.NewClient(cfg.Processing.BaseURL, cfg.Processing.Timeout, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		productService: products,
		catalogService: catalogSvc,
		processor:      processor,
		flows:          flows,
		db:             db,
		cache:          cache,
		profiles:       profileRepo,
		sessions:       sessionRepo,
	}
}

// Sessions exposes the session repository for the background pruner.
func (h HandlerSet) Sessions() *repository.SessionRepository {
	return h.sessions
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/logout", middleware.OptionalSession(h.sessions, h.cfg.Security.SessionSecret), h.Logout)
		auth.GET("/check-login", middleware.OptionalSession(h.sessions, h.cfg.Security.SessionSecret), h.CheckLogin)
		auth.GET("/profile", middleware.RequireSession(h.sessions, h.cfg.Security.SessionSecret), h.Profile)

		v1.GET("/catalog", h.Catalog)

		flows := v1.Group("/flows")
		flows.Use(middleware.RequireSession(h.sessions, h.cfg.Security.SessionSecret))
		flows.POST("", h.CreateFlow)
		flows.GET("/:id", h.FlowView)
		flows.PUT("/:id/files", h.ReplaceFlowFiles)
		flows.DELETE("/:id/files/:idx", h.RemoveFlowFile)
		flows.POST("/:id/process", h.ProcessFlow)
		flows.POST("/:id/draft", h.UpsertDraft)
		flows.DELETE("/:id/draft", h.DiscardDraft)
		flows.DELETE("/:id/draft/images/:idx", h.RemoveDraftImage)
		flows.POST("/:id/save", h.SaveFlow)
		flows.POST("/:id/reset", h.ResetFlow)
	}
}
