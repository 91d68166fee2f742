package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/billfold/billfold/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
)

// Server is the backend platform service: auth sessions, row storage,
// object storage buckets and realtime change feeds.
type Server struct {
	db      *sql.DB
	echo    *echo.Echo
	hub     *Hub
	dataDir string
	oidc    map[string]*oidc.IDTokenVerifier
}

// New creates a new server backed by the given postgres URL. Uploaded
// objects are stored under dataDir, one directory per bucket.
func New(dbURL, dataDir string) (*Server, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Server{
		db:      db,
		hub:     NewHub(),
		dataDir: dataDir,
	}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	s.loadOIDCProviders()
	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			logger.Info("HTTP",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	// Public object downloads
	e.GET("/storage/:bucket/:name", s.handleStorageGet)

	// API v1
	api := e.Group("/api/v1")

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/oauth", s.handleOAuthLogin)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/password-reset", s.handlePasswordReset)
	api.POST("/password-reset/confirm", s.handlePasswordResetConfirm)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)
	protected.PATCH("/user", s.handleUserUpdate)

	protected.GET("/tasks", s.handleTaskList)
	protected.POST("/tasks", s.handleTaskCreate)
	protected.PATCH("/tasks/:id", s.handleTaskUpdate)
	protected.DELETE("/tasks/:id", s.handleTaskDelete)

	protected.GET("/invoices", s.handleInvoiceList)
	protected.GET("/invoices/:id", s.handleInvoiceGet)
	protected.POST("/invoices", s.handleInvoiceCreate)
	protected.PATCH("/invoices/:id", s.handleInvoiceUpdate)
	protected.DELETE("/invoices/:id", s.handleInvoiceDelete)
	protected.DELETE("/invoices", s.handleInvoiceBulkDelete)

	protected.GET("/notifications", s.handleNotificationList)
	protected.POST("/notifications", s.handleNotificationCreate)
	protected.PATCH("/notifications/:id", s.handleNotificationUpdate)
	protected.POST("/notifications/read-all", s.handleNotificationReadAll)
	protected.DELETE("/notifications", s.handleNotificationClear)

	protected.GET("/profile", s.handleProfileGet)
	protected.PUT("/profile", s.handleProfileUpsert)

	protected.POST("/storage/:bucket", s.handleStorageUpload)
	protected.DELETE("/storage/:bucket/:name", s.handleStorageRemove)

	protected.GET("/realtime", s.handleRealtime)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
