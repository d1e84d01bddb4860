package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	gateway "github.com/gfconnector/billing-console/internal/gateways"
	"github.com/gfconnector/billing-console/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// HealthResponse is served on /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	ProviderID  string    `json:"provider_id"`
	Timestamp   time.Time `json:"timestamp"`
	SuccessRate float64   `json:"success_rate"`
	Issued      int64     `json:"issued"`
}

// MockInvoicer simulates the electronic invoicing provider: it hands out invoice and
// credit note numbers with a CAE, serves their PDFs and pretends to e-mail invoices.
type MockInvoicer struct {
	mu          sync.Mutex
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	providerID  string
	rng         *rand.Rand
	invoiceSeq  atomic.Int64
	creditSeq   atomic.Int64
	resends     atomic.Int64
}

func NewMockInvoicer(successRate float64, minDelay, maxDelay time.Duration) *MockInvoicer {
	return &MockInvoicer{
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		providerID:  "MOCK_INVOICER_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockInvoicer) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockInvoicer) shouldSucceed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64() < m.successRate
}

func (m *MockInvoicer) cae() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%014d", m.rng.Int63n(1e14))
}

func (m *MockInvoicer) rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successRate
}

func (m *MockInvoicer) setRate(r float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successRate = r
}

// issue sleeps like a real provider, then either numbers the document or fails it.
func (m *MockInvoicer) issue(prefix string, seq *atomic.Int64) (*gateway.DocumentResponse, bool) {
	time.Sleep(m.randomDelay())
	if !m.shouldSucceed() {
		return nil, false
	}
	return &gateway.DocumentResponse{
		Number:   fmt.Sprintf("%s-0001-%08d", prefix, seq.Add(1)),
		CAE:      m.cae(),
		IssuedAt: time.Now().UTC(),
	}, true
}

type Handler struct {
	invoicer *MockInvoicer
}

func NewHandler(invoicer *MockInvoicer) *Handler {
	return &Handler{invoicer: invoicer}
}

func (h *Handler) IssueInvoice(c *gin.Context) {
	var req gateway.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TransactionID == "" || !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice request"})
		return
	}

	doc, ok := h.invoicer.issue("FC", &h.invoicer.invoiceSeq)
	if !ok {
		log.Warn().Str("transaction_id", req.TransactionID).Msg("invoice rejected by tax authority")
		c.JSON(http.StatusBadGateway, gin.H{"error": "tax authority unavailable"})
		return
	}

	log.Info().
		Str("transaction_id", req.TransactionID).
		Str("number", doc.Number).
		Str("amount", req.Amount.StringFixed(2)).
		Str("currency", req.Currency).
		Msg("invoice issued")
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) IssueCreditNote(c *gin.Context) {
	var req gateway.CreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TransactionID == "" || req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credit note request"})
		return
	}

	doc, ok := h.invoicer.issue("NC", &h.invoicer.creditSeq)
	if !ok {
		log.Warn().Str("transaction_id", req.TransactionID).Msg("credit note rejected by tax authority")
		c.JSON(http.StatusBadGateway, gin.H{"error": "tax authority unavailable"})
		return
	}

	log.Info().
		Str("transaction_id", req.TransactionID).
		Str("number", doc.Number).
		Str("reason", req.Reason).
		Msg("credit note issued")
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) DocumentPDF(c *gin.Context) {
	number := c.Param("number")
	c.Header("Content-Disposition", `attachment; filename="`+number+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", services.StubPDF(number))
}

func (h *Handler) ResendDocument(c *gin.Context) {
	var req gateway.ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resend request"})
		return
	}
	time.Sleep(h.invoicer.randomDelay())
	if !h.invoicer.shouldSucceed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mail relay unavailable"})
		return
	}
	h.invoicer.resends.Add(1)
	log.Info().Str("number", c.Param("number")).Str("email", req.Email).Msg("invoice e-mailed")
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		ProviderID:  h.invoicer.providerID,
		Timestamp:   time.Now(),
		SuccessRate: h.invoicer.rate(),
		Issued:      h.invoicer.invoiceSeq.Load() + h.invoicer.creditSeq.Load(),
	})
}

// UpdateConfig changes the success rate at runtime.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		SuccessRate *float64 `json:"success_rate"`
	}
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if config.SuccessRate != nil && *config.SuccessRate >= 0 && *config.SuccessRate <= 1 {
		h.invoicer.setRate(*config.SuccessRate)
		log.Info().Float64("rate", *config.SuccessRate).Msg("updated success rate")
	}
	c.JSON(http.StatusOK, gin.H{"success_rate": h.invoicer.rate()})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/invoices", handler.IssueInvoice)
		v1.POST("/credit-notes", handler.IssueCreditNote)
		v1.GET("/documents/:number/pdf", handler.DocumentPDF)
		v1.POST("/documents/:number/resend", handler.ResendDocument)
		v1.PUT("/config", handler.UpdateConfig)
	}
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	// amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	port := getEnv("PORT", "8081")
	successRate := getEnvFloat("SUCCESS_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 50*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 300*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("starting mock invoicing provider")

	router := SetupRouter(NewHandler(NewMockInvoicer(successRate, minDelay, maxDelay)))
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
