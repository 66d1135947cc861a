// Package api exposes the planner over HTTP: session creation, conversation
// turns, and itinerary exports.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/orchestrator"
	"ai-trip-planner/internal/session"
	"ai-trip-planner/internal/trip"
)

// Server is the HTTP surface over the orchestrator.
type Server struct {
	echo       *echo.Echo
	orch       *orchestrator.Orchestrator
	store      *session.Store
	metrics    *metrics.Store
	history    *session.HistoryRepository
	jwtSecret  string
	sessionTTL time.Duration
	dataPath   string
}

// NewServer wires the routes. The metrics store may be nil (no persistence).
func NewServer(orch *orchestrator.Orchestrator, store *session.Store, metricsStore *metrics.Store, jwtSecret string, sessionTTL time.Duration, dataPath string) *Server {
	s := &Server{
		echo:       echo.New(),
		orch:       orch,
		store:      store,
		metrics:    metricsStore,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		dataPath:   dataPath,
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.Logger())

	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/v1/sessions", s.handleCreateSession)

	scoped := s.echo.Group("/v1/sessions/:id", sessionAuth(jwtSecret))
	scoped.POST("/turns", s.handleTurn)
	scoped.GET("/itinerary.ics", s.handleICS)
	scoped.GET("/export", s.handleExport)
	scoped.GET("/history", s.handleHistory)

	return s
}

// WithHistory enables persisted history and itinerary recovery for sessions
// that have expired from memory.
func (s *Server) WithHistory(h *session.HistoryRepository) *Server {
	s.history = h
	return s
}

// Start blocks serving HTTP until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.echo.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
}

func (s *Server) handleCreateSession(c echo.Context) error {
	id := s.orch.NewSession()
	resp := createSessionResponse{SessionID: id}
	if s.jwtSecret != "" {
		token, err := issueToken(s.jwtSecret, id, s.sessionTTL)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
		}
		resp.Token = token
	}
	return c.JSON(http.StatusCreated, resp)
}

type turnRequest struct {
	Utterance string `json:"utterance"`
}

func (s *Server) handleTurn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil || req.Utterance == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "utterance is required")
	}

	resp, err := s.orch.HandleTurn(c.Request().Context(), c.Param("id"), req.Utterance)
	if err != nil {
		if trip.KindOf(err) == trip.KindSessionNotFound {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.recordMetrics(resp)
	return c.JSON(http.StatusOK, resp)
}

// itineraryFor resolves the session's itinerary, falling back to the latest
// persisted one when the in-memory session has expired.
func (s *Server) itineraryFor(c echo.Context) (*trip.Itinerary, error) {
	id := c.Param("id")
	snap, err := s.store.Get(id)
	if err == nil {
		if snap.Itinerary == nil {
			return nil, echo.NewHTTPError(http.StatusConflict, "no itinerary yet")
		}
		return snap.Itinerary, nil
	}

	if s.history != nil {
		it, herr := s.history.LatestItinerary(c.Request().Context(), id)
		if herr == nil && it != nil {
			return it, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
}

func (s *Server) handleICS(c echo.Context) error {
	it, err := s.itineraryFor(c)
	if err != nil {
		return err
	}

	start := time.Now().AddDate(0, 0, 1)
	if v := c.QueryParam("start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start must be YYYY-MM-DD")
		}
		start = parsed
	}

	out, err := export.ICS(it, start)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "text/calendar", []byte(out))
}

func (s *Server) handleExport(c echo.Context) error {
	it, err := s.itineraryFor(c)
	if err != nil {
		return err
	}

	doc, err := export.BuildDocument(it)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "history persistence disabled")
	}
	turns, err := s.history.ListTurns(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"turns": turns})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.store.Len(),
		"sys":      metrics.GetSysHealth(s.dataPath),
	})
}

func (s *Server) recordMetrics(resp orchestrator.Response) {
	if s.metrics == nil {
		return
	}
	for _, meta := range resp.Metas {
		if err := s.metrics.RecordMeta(meta); err != nil {
			log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
		}
	}
}
