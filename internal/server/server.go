// Package server exposes the countdown engine over a loopback HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine  *engine.Engine
	Timers  *store.TimerStore
	History *store.HistoryLog
	Inbox   store.Inbox

	// Token is the bearer token every request but /health must carry.
	// An empty token disables authentication.
	Token string

	// ExportFormat is the default format of GET /history/export.
	ExportFormat string
}

type apiErrorBody struct {
	Code    string `json:"code" example:"conflict"`
	Message string `json:"message" example:"category already exists"`
}

// apiError is the error envelope returned by every endpoint.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the countdown API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil || cfg.Timers == nil || cfg.History == nil {
		return nil, errors.New("server: engine, timers and history are required")
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = store.FormatJSON
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.Token))

	hcfg := huma.DefaultConfig("Countdown API", "1.0.0")
	api := humachi.New(router, hcfg)

	registerHealth(api)
	registerTimers(api, cfg)
	registerCategories(api, cfg)
	registerHistory(api, cfg)
	registerAlerts(api, cfg)

	return router, nil
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body:   apiErrorBody{Code: code, Message: message},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, model.ErrInvalidTimer), errors.Is(err, store.ErrEmptyCategory):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrDuplicateCategory):
		return newAPIError(http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, store.ErrBuiltInCategory):
		return newAPIError(http.StatusConflict, "built_in_category", err.Error())
	case errors.Is(err, store.ErrExportEmpty):
		return newAPIError(http.StatusNotFound, "no_data", "no data")
	case errors.Is(err, engine.ErrClosed):
		return newAPIError(http.StatusServiceUnavailable, "", err.Error())
	case errors.Is(err, store.ErrStorage):
		return newAPIError(http.StatusInternalServerError, "storage_fault", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}
