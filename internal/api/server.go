package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"gatepass/internal/cache"
	"gatepass/internal/config"
	"gatepass/internal/database"
	"gatepass/internal/handlers"
	"gatepass/internal/messaging"
	"gatepass/internal/middleware"
	"gatepass/internal/monitoring"
	"gatepass/internal/repository"
	"gatepass/internal/search"
	"gatepass/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
)

// Server is the HTTP front of the ledger.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	store    *repository.Store
}

// NewServer wires the full stack: database, migrations, ledger bootstrap,
// messaging, cache, search, services and routes.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := repository.NewStore(db)

	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	if err := store.Bootstrap(context.Background(), repository.BootstrapConfig{
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: string(adminHash),
	}); err != nil {
		log.Fatalf("Failed to bootstrap ledger: %v", err)
	}

	var publisher service.Publisher
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Printf("NATS unavailable, workflow records disabled: %v", err)
		publisher = messaging.NoopPublisher{}
	} else {
		publisher = natsClient
	}

	var valkeyClient *cache.ValkeyClient
	if cfg.CacheEnabled {
		valkeyClient, err = cache.NewValkeyClient()
		if err != nil {
			log.Printf("Valkey unavailable, auth cache disabled: %v", err)
			valkeyClient = nil
		}
	}

	var esClient *search.Client
	if cfg.SearchEnabled {
		esClient, err = search.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Printf("Elasticsearch unavailable, catalog served from database: %v", err)
			esClient = nil
		}
	}

	services := service.NewServices(store, publisher, esClient, valkeyClient)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(monitoring.HTTPMiddleware())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		store:    store,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey)

	// Public surface: signup, catalog reads and the token read facade.
	public := s.router.Group("/api")
	{
		public.POST("/accounts", h.Signup)
		public.GET("/events", h.ListEvents)
		public.GET("/events/:id", h.GetEvent)
		public.GET("/tokens/last", h.LastTokenID)
		public.GET("/tokens/:id/uri", h.TokenURI)
		public.GET("/tokens/:id/owner", h.TokenOwner)
	}

	// Everything else requires Basic Auth.
	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.services.Accounts, s.valkey))
	{
		accounts := api.Group("/accounts")
		{
			accounts.GET("/balance", h.GetBalance)
			accounts.POST("/topup", h.TopUp)
		}

		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("/mine", h.ListMyEvents)
			events.PATCH("/cancel", h.CancelEvent)
			events.GET("/:id/balance", h.GetEventBalance)
			events.POST("/withdraw", h.WithdrawRevenue)
			events.GET("/:id/validators/:account", h.GetValidator)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", h.PurchaseTicket)
			tickets.GET("", h.ListTickets)
			tickets.GET("/:id", h.GetTicket)
			tickets.GET("/:id/qr", h.TicketQR)
			tickets.PATCH("/validate", h.ValidateTicket)
			tickets.PATCH("/validate/batch", h.BatchValidateTickets)
			tickets.PATCH("/transfer", h.TransferTicket)
			tickets.PATCH("/refund", h.RefundTicket)
		}

		validators := api.Group("/validators")
		{
			validators.POST("", h.AddValidator)
			validators.DELETE("", h.RemoveValidator)
		}

		admin := api.Group("/admin")
		{
			admin.PATCH("/pause", h.SetPaused)
			admin.PATCH("/rotate", h.SetAdmin)
		}

		tokens := api.Group("/tokens")
		{
			tokens.PATCH("/transfer", h.TransferToken)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())
	if check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": check,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "gatepass-api",
		"version": "1.0.0",
	})
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the outbound connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
