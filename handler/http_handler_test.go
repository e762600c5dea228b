package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newswatch/events"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

type stubScheduler struct {
	triggered []string
	status    JobStatus
	err       error
}

func (s *stubScheduler) Schedule(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) error {
	return nil
}

func (s *stubScheduler) Trigger(name string) error {
	if s.err != nil {
		return s.err
	}
	s.triggered = append(s.triggered, name)
	return nil
}

func (s *stubScheduler) Stop(name string) error { return nil }

func (s *stubScheduler) StopAll() {}

func (s *stubScheduler) GetJobStatus(name string) (JobStatus, error) {
	if s.err != nil {
		return JobStatus{}, s.err
	}
	return s.status, nil
}

func newTestHandler(scheduler JobScheduler, pinger Pinger) (*HTTPHandler, *echo.Echo) {
	e := echo.New()
	h := NewHTTPHandler(scheduler, events.NewPublisher(4, nil), pinger, nil)
	h.RegisterRoutes(e)
	return h, e
}

func TestHTTPHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		_, e := newTestHandler(&stubScheduler{}, &stubPinger{})

		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("database_down", func(t *testing.T) {
		_, e := newTestHandler(&stubScheduler{}, &stubPinger{err: errors.New("no route")})

		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHTTPHandler_TriggerCollection(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		scheduler := &stubScheduler{}
		_, e := newTestHandler(scheduler, &stubPinger{})

		req := httptest.NewRequest(http.MethodPost, "/v1/collector/run", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{JobFeedCollection}, scheduler.triggered)
	})

	t.Run("unknown_job", func(t *testing.T) {
		scheduler := &stubScheduler{err: errors.New("job feed_collection not found")}
		_, e := newTestHandler(scheduler, &stubPinger{})

		req := httptest.NewRequest(http.MethodPost, "/v1/collector/run", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHTTPHandler_JobStatus(t *testing.T) {
	lastRun := "2026-08-20T09:00:00Z"
	scheduler := &stubScheduler{status: JobStatus{
		Name:       JobFeedCollection,
		IsRunning:  false,
		LastRun:    &lastRun,
		ErrorCount: 2,
		LastError:  errors.New("feed unavailable"),
	}}
	_, e := newTestHandler(scheduler, &stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/feed_collection", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errorCount":2`)
	assert.Contains(t, rec.Body.String(), `"lastError":"feed unavailable"`)
}
