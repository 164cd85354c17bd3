package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		code     string
	}{
		{name: "validation", err: NewValidationError("bad body", cause), category: CategoryValidation, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "incomplete input", err: NewIncompleteInputError([]string{"tremor"}, cause), category: CategoryIncompleteInput, status: http.StatusBadRequest, code: "INCOMPLETE_INPUT"},
		{name: "capture", err: NewCaptureError("Recording failed", http.StatusUnprocessableEntity, cause), category: CategoryCapture, status: http.StatusUnprocessableEntity, code: "CAPTURE_ERROR"},
		{name: "not found", err: NewNotFoundError("clip", "abc"), category: CategoryNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "timeout", err: NewTimeoutError("slow", cause), category: CategoryTimeout, status: http.StatusGatewayTimeout, code: "TIMEOUT_ERROR"},
		{name: "rate limit", err: NewRateLimitError("60"), category: CategoryRateLimit, status: http.StatusTooManyRequests, code: "RATE_LIMIT_EXCEEDED"},
		{name: "internal", err: NewInternalError("oops", cause), category: CategoryInternal, status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
		{name: "configuration", err: NewConfigurationError("no port", cause), category: CategoryConfiguration, status: http.StatusInternalServerError, code: "CONFIGURATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code())
			assert.Contains(t, tt.err.Error(), "["+tt.code+"]")
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestIncompleteInputFields(t *testing.T) {
	err := NewIncompleteInputError([]string{"tremor", "walking"}, nil)

	resp := err.Response()
	assert.Equal(t, map[string]string{"tremor": "required", "walking": "required"}, resp.Fields)
	assert.Equal(t, CategoryIncompleteInput, resp.Category)
	assert.Equal(t, "Please answer all questions before submitting", resp.Error)
}

func TestToAppError(t *testing.T) {
	assert.Nil(t, ToAppError(nil))

	original := NewNotFoundError("clip", "x")
	assert.Same(t, original, ToAppError(fmt.Errorf("wrapped: %w", original)))

	assert.Equal(t, CategoryTimeout, ToAppError(context.DeadlineExceeded).Category)
	assert.Equal(t, CategoryTimeout, ToAppError(context.Canceled).Category)
	assert.Equal(t, CategoryInternal, ToAppError(errors.New("mystery")).Category)
}

func setupErrorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryHandler(), ErrorHandler())

	router.GET("/missing", func(c *gin.Context) {
		Abort(c, NewNotFoundError("clip", "abc"))
	})
	router.GET("/limited", func(c *gin.Context) {
		Abort(c, NewRateLimitError("30"))
	})
	router.GET("/plain", func(c *gin.Context) {
		Abort(c, errors.New("unexpected"))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})
	return router
}

func TestErrorHandler(t *testing.T) {
	router := setupErrorRouter()

	tests := []struct {
		path     string
		status   int
		category ErrorCategory
	}{
		{path: "/missing", status: http.StatusNotFound, category: CategoryNotFound},
		{path: "/limited", status: http.StatusTooManyRequests, category: CategoryRateLimit},
		{path: "/plain", status: http.StatusInternalServerError, category: CategoryInternal},
		{path: "/panic", status: http.StatusInternalServerError, category: CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("X-Request-ID", "req-1")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.category, resp.Category)
			assert.NotEmpty(t, resp.Error)
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestLogErrorOmitsSubmittedValues(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/assess/questionnaire", nil)

	submitted := errors.New("tremor: must be between 0 and 10, got 11")
	LogError(c, NewIncompleteInputError([]string{"walking"}, submitted))
	LogError(c, NewValidationError("Answers must be whole numbers", submitted))

	out := buf.String()
	assert.Contains(t, out, "walking")
	assert.NotContains(t, out, "got 11")

	buf.Reset()
	LogError(c, NewInternalError("store failed", errors.New("disk full")))
	assert.Contains(t, buf.String(), "disk full", "causes of server faults are still logged")
}

func TestSafeClose(t *testing.T) {
	c := &failingCloser{}
	SafeClose(c, "test")
	assert.True(t, c.closed)

	SafeClose(nil, "nothing")
}
