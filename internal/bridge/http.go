package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/clipbridge/internal/auth"
	"github.com/danmuck/clipbridge/internal/observability"
	"github.com/danmuck/clipbridge/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	Version = "0.1.0"

	maxHTTPBody = 16 << 20
)

// HTTPHandler exposes the dispatcher over gin for webview and script callers.
type HTTPHandler struct {
	Name     string
	Appeared time.Time

	dispatcher *Dispatcher
	router     *gin.Engine
}

func NewHTTPHandler(name string, dispatcher *Dispatcher, corsOrigins []string) *HTTPHandler {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  normalizeOrigins(corsOrigins),
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		CustomSchemas: []string{"tauri"},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	h := &HTTPHandler{
		Name:       name,
		Appeared:   time.Now(),
		dispatcher: dispatcher,
		router:     r,
	}
	h.registerRoutes()
	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

func (h *HTTPHandler) registerRoutes() {
	h.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(h.Appeared).String(),
			"service": h.Name,
			"version": Version,
		})
	})

	h.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(h.Appeared).String(),
			"service": h.Name,
			"version": Version,
		})
	})

	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.router.GET("/commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"commands": h.dispatcher.Registry().Names()})
	})

	h.router.POST("/invoke/:command", h.invoke)
}

func (h *HTTPHandler) invoke(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxHTTPBody))
	if err != nil {
		writeHTTPError(c, http.StatusBadRequest, session.KindProtocol, err)
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeHTTPError(c, http.StatusBadRequest, session.KindInvalidArgs, errors.New("request body is not valid json"))
		return
	}

	payload, err := h.dispatcher.Dispatch(c.Request.Context(), Call{
		Transport: TransportHTTP,
		RequestID: requestID,
		Command:   c.Param("command"),
		Args:      body,
		Token:     auth.BearerToken(c.GetHeader("Authorization")),
	})
	if err != nil {
		kind := KindOf(err)
		writeHTTPError(c, statusForKind(kind), kind, err)
		return
	}
	var result any
	if payload != nil {
		result = payload
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

func writeHTTPError(c *gin.Context, status int, kind string, err error) {
	c.JSON(status, gin.H{
		"ok": false,
		"error": gin.H{
			"kind":    kind,
			"message": err.Error(),
		},
	})
}

func statusForKind(kind string) int {
	switch kind {
	case session.KindCommandNotFound:
		return http.StatusNotFound
	case session.KindInvalidArgs, session.KindProtocol:
		return http.StatusBadRequest
	case session.KindUnauthorized:
		return http.StatusUnauthorized
	case session.KindClipboardUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
