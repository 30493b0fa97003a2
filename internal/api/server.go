package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/auth"
	"github.com/trackify/mailer/internal/report"
	"github.com/trackify/mailer/internal/store"
)

// Composer, Dispatcher and PDFRenderer mirror the concrete report/mailer/
// clients types; the handlers only see these so tests can substitute fakes.
type Composer interface {
	Compose(ctx context.Context, goalID uuid.UUID, recipient, ownerID, token string) (*report.Report, error)
}

type Dispatcher interface {
	Send(recipients, subject, htmlBody string, attachment []byte, filename string) (string, error)
}

type PDFRenderer interface {
	RenderGoalReport(ctx context.Context, goalID uuid.UUID, token string) ([]byte, error)
}

type Server struct {
	store      *store.Store
	composer   Composer
	dispatcher Dispatcher
	pdfClient  PDFRenderer
	logger     *slog.Logger
	router     *gin.Engine
}

func NewServer(st *store.Store, composer Composer, dispatcher Dispatcher, pdfClient PDFRenderer, logger *slog.Logger, jwtSecret string) *Server {
	server := &Server{
		store:      st,
		composer:   composer,
		dispatcher: dispatcher,
		pdfClient:  pdfClient,
		logger:     logger,
		router:     gin.Default(),
	}

	server.setupRoutes(jwtSecret)
	return server
}

func (s *Server) setupRoutes(jwtSecret string) {
	// Public routes
	s.router.GET("/api/mail/health/liveness", s.liveness)
	s.router.GET("/api/mail/health/readiness", s.readiness)

	// Protected routes (require authentication)
	api := s.router.Group("/api/mail")
	api.Use(auth.AuthMiddleware(jwtSecret))

	// Report settings
	api.POST("/settings", s.upsertSettings)
	api.GET("/settings", s.listSettings)
	api.GET("/settings/:goal_id", s.getSettings)
	api.PUT("/settings/:goal_id", s.updateSettings)
	api.DELETE("/settings/:goal_id", s.deleteSettings)

	// Sending
	api.POST("/send-now", s.sendNow)
	api.POST("/batch/send", s.sendBatch)
	api.POST("/:id/send", s.sendMail)

	// Mail records
	api.POST("", s.createMail)
	api.GET("", s.listMails)
	api.GET("/:id", s.getMail)
	api.PUT("/:id", s.updateMail)
	api.DELETE("/:id", s.deleteMail)
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Mailer Service"})
}

func (s *Server) readiness(c *gin.Context) {
	if err := s.store.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Mailer Service"})
}

func currentUser(c *gin.Context) string {
	return c.GetString(auth.ContextUserID)
}

func currentToken(c *gin.Context) string {
	return c.GetString(auth.ContextToken)
}
