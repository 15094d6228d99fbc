package http

import (
	"net/http"
	"time"

	"golang-market-intel/internal/pipeline/collector"
	"golang-market-intel/internal/pipeline/queue"
	"golang-market-intel/internal/pipeline/repository"
	"golang-market-intel/internal/pipeline/service"
	"golang-market-intel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OpsHandler serves the pipeline's operational surface: liveness and a
// counters snapshot across every stage.
type OpsHandler struct {
	queue       queue.Queue
	gatekeeper  service.GatekeeperService
	brain       service.BrainService
	rawPostRepo repository.RawPostRepository
	runners     func() []*collector.Runner
	logger      *logger.Logger
	startedAt   time.Time
}

// NewOpsHandler creates a new OpsHandler. runners is read lazily so handlers
// registered after server start are still reported.
func NewOpsHandler(
	q queue.Queue,
	gatekeeper service.GatekeeperService,
	brain service.BrainService,
	rawPostRepo repository.RawPostRepository,
	runners func() []*collector.Runner,
	log *logger.Logger,
) *OpsHandler {
	return &OpsHandler{
		queue:       q,
		gatekeeper:  gatekeeper,
		brain:       brain,
		rawPostRepo: rawPostRepo,
		runners:     runners,
		logger:      log,
		startedAt:   time.Now().UTC(),
	}
}

// RegisterRoutes registers the ops routes on the Echo instance.
func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/stats", h.Stats)
}

// Health reports process liveness.
func (h *OpsHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// Stats returns a snapshot of queue depth and per-stage counters.
func (h *OpsHandler) Stats(c echo.Context) error {
	queueStats, err := h.queue.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to read queue stats", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to read queue stats"})
	}

	var collectors []collector.RunnerStats
	ingested := make(map[string]int64)
	for _, r := range h.runners() {
		collectors = append(collectors, r.Stats())
		count, err := h.rawPostRepo.CountByPlatform(c.Request().Context(), r.Platform())
		if err != nil {
			h.logger.Error("Failed to count raw posts",
				logger.ErrorField(err),
				logger.StringField("platform", r.Platform()))
			continue
		}
		ingested[r.Platform()] = count
	}

	return c.JSON(http.StatusOK, echo.Map{
		"queue":      queueStats,
		"gatekeeper": h.gatekeeper.Stats(),
		"brain":      h.brain.Stats(),
		"collectors": collectors,
		"ingested":   ingested,
	})
}
