package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"newswatch/events"
)

// Pinger is the slice of the database pool the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPHandler exposes the pipeline's small operational surface: health,
// on-demand collection, job status, and the live event stream.
type HTTPHandler struct {
	scheduler JobScheduler
	publisher *events.Publisher
	db        Pinger
	logger    *slog.Logger
}

func NewHTTPHandler(scheduler JobScheduler, publisher *events.Publisher, db Pinger, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{
		scheduler: scheduler,
		publisher: publisher,
		db:        db,
		logger:    logger,
	}
}

// RegisterRoutes mounts all endpoints under /v1.
func (h *HTTPHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.POST("/collector/run", h.TriggerCollection)
	v1.GET("/jobs/:name", h.JobStatus)
	v1.GET("/events/stream", h.StreamEvents)
}

// Health reports liveness and database reachability.
func (h *HTTPHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"reason": "database unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// TriggerCollection requests an immediate collection cycle. The cycle runs in
// the scheduler's goroutine; this returns as soon as the trigger is accepted.
func (h *HTTPHandler) TriggerCollection(c echo.Context) error {
	if err := h.scheduler.Trigger(JobFeedCollection); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	h.logger.InfoContext(c.Request().Context(), "collection cycle triggered on demand")

	return c.JSON(http.StatusAccepted, map[string]string{"status": "triggered"})
}

// JobStatus reports one scheduled job's last/next run and error count.
func (h *HTTPHandler) JobStatus(c echo.Context) error {
	status, err := h.scheduler.GetJobStatus(c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	resp := map[string]any{
		"name":       status.Name,
		"isRunning":  status.IsRunning,
		"lastRun":    status.LastRun,
		"nextRun":    status.NextRun,
		"errorCount": status.ErrorCount,
	}
	if status.LastError != nil {
		resp["lastError"] = status.LastError.Error()
	}

	return c.JSON(http.StatusOK, resp)
}

// StreamEvents serves the live article feed over server-sent events. Slow
// clients miss events rather than applying backpressure to the pipeline.
func (h *HTTPHandler) StreamEvents(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ch, cancel := h.publisher.Subscribe()
	defer cancel()

	ctx := c.Request().Context()

	// Heartbeat keeps intermediaries from closing an idle stream.
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to marshal event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
