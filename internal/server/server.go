package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	redigo "github.com/gomodule/redigo/redis"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskroom/internal/cache"
	"github.com/yukikurage/taskroom/internal/config"
	"github.com/yukikurage/taskroom/internal/constants"
	"github.com/yukikurage/taskroom/internal/database"
	"github.com/yukikurage/taskroom/internal/handlers"
	"github.com/yukikurage/taskroom/internal/middleware"
	"github.com/yukikurage/taskroom/internal/notify"
	"github.com/yukikurage/taskroom/internal/repository"
	"github.com/yukikurage/taskroom/internal/services"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Server owns the database, the optional Redis client and the HTTP router.
type Server struct {
	cfg    config.Config
	db     *gorm.DB
	redis  *redis.Client
	router *gin.Engine
}

// New connects to the database and Redis, runs migrations and builds the router.
// Redis is optional: without REDIS_ADDR sessions live in cookies, the board
// cache is off and invites are only logged.
func New(cfg config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	s.db = db

	if err := database.Migrate(db); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = rdb
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.router = NewRouter(cfg, db, s.redis, store)
	return s, nil
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.HTTP.Port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: s.cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  s.cfg.HTTP.IdleTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases Redis and the database pool.
func (s *Server) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, database.Close(s.db))
	}
	return errors.Join(errs...)
}

func newSessionStore(cfg config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.Redis.Enabled() {
		rs, err := redisStore.NewStoreWithPool(sessionPool(cfg.Redis), []byte(cfg.Session.Secret))
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge.Duration().Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// sessionPool dials the same Redis as the cache client, TLS and DB index included.
func sessionPool(cfg config.RedisConfig) *redigo.Pool {
	return &redigo.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redigo.Conn, error) {
			return redigo.Dial("tcp", cfg.Addr,
				redigo.DialUsername(cfg.Username),
				redigo.DialPassword(cfg.Password),
				redigo.DialDatabase(cfg.DB),
				redigo.DialUseTLS(cfg.TLS),
				redigo.DialConnectTimeout(2*time.Second),
			)
		},
	}
}

// NewRouter wires repositories, services and handlers onto a gin engine.
// rdb may be nil.
func NewRouter(cfg config.Config, db *gorm.DB, rdb *redis.Client, store sessions.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", constants.HeaderOrganization},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// A nil interface, not a typed nil, keeps caching off.
	var boardCache cache.BoardCache
	var invites notify.InviteSender = notify.LogInviteSender{}
	if rdb != nil {
		boardCache = cache.NewTaskCache(rdb, cfg.Redis.CacheTTL.Duration())
		invites = notify.NewRedisInviteQueue(rdb)
	}

	var aiService *services.AIService
	if cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	orgService := services.NewOrganizationService(repository.NewOrganizationRepository(db))
	authHandler := handlers.NewAuthHandler(services.NewAuthService(repository.NewUserRepository(db)))
	orgHandler := handlers.NewOrganizationHandler(orgService)
	taskHandler := handlers.NewTaskHandler(services.NewTaskService(repository.NewTaskRepository(db), boardCache, aiService))
	meetingHandler := handlers.NewMeetingHandler(services.NewMeetingService(repository.NewMeetingRepository(db), invites, cfg.App.BaseURL))

	r.GET("/health", healthHandler(db))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("/join", orgHandler.JoinOrganization)

			access := middleware.RequireOrganizationAccess(orgService)
			owner := middleware.RequireOrganizationOwner()
			orgs.GET("/:id", access, orgHandler.GetOrganization)
			orgs.PUT("/:id", access, owner, orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", access, owner, orgHandler.DeleteOrganization)
			orgs.POST("/:id/regenerate-code", access, owner, orgHandler.RegenerateInviteCode)
			orgs.DELETE("/:id/members/:user_id", access, owner, orgHandler.RemoveMember)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(), middleware.RequireTenant(orgService))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/board", taskHandler.GetBoard)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.POST("/:id/toggle", taskHandler.ToggleTaskStatus)
		}

		meetings := api.Group("/meetings")
		meetings.Use(middleware.RequireAuth(), middleware.RequireTenant(orgService))
		{
			meetings.POST("", meetingHandler.CreateMeeting)
			meetings.GET("", meetingHandler.ListMeetings)
			meetings.GET("/:id", meetingHandler.GetMeeting)
			meetings.DELETE("/:id", meetingHandler.DeleteMeeting)
			meetings.POST("/:id/invite", meetingHandler.InviteToMeeting)
		}
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"message": "database is unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task board API is running",
		})
	}
}
