package httperr

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seafood-tracker/mobile-bff/internal/upstream"
)

func testTime() time.Time {
	return time.Date(2025, 1, 5, 9, 30, 0, 0, time.UTC)
}

func newTestTranslator() *Translator {
	return NewTranslator(nil, testTime)
}

func TestTranslate_DomainError(t *testing.T) {
	t.Parallel()

	tr := newTestTranslator()

	resp := tr.Translate(BadRequest("이미지 크기는 5MB를 초과할 수 없습니다"), http.MethodPost, "/api/recognition")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "이미지 크기는 5MB를 초과할 수 없습니다", resp.Message)
	assert.Equal(t, "BadRequest", resp.ErrorType)
	assert.Nil(t, resp.Details)
	assert.Equal(t, "2025-01-05T09:30:00Z", resp.Timestamp)
	assert.Equal(t, "/api/recognition", resp.Path)
}

func TestTranslate_DomainErrorWithDetails(t *testing.T) {
	t.Parallel()

	tr := newTestTranslator()

	err := &Error{
		Status:  http.StatusBadRequest,
		Message: "입력 데이터가 올바르지 않습니다",
		ErrType: "ValidationError",
		Details: map[string]any{"field": "date"},
	}
	resp := tr.Translate(err, http.MethodGet, "/api/items/7/dashboard")

	assert.Equal(t, "ValidationError", resp.ErrorType)
	assert.Equal(t, map[string]any{"field": "date"}, resp.Details)
}

func TestTranslate_DomainCodeTranslation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         *upstream.StatusError
		wantStatus  int
		wantMessage string
	}{
		{
			name: "known code uses the fixed localized sentence",
			err: &upstream.StatusError{
				StatusCode: http.StatusNotFound,
				ErrType:    "ItemNotFoundException",
				Message:    "item 99 not found",
			},
			wantStatus:  http.StatusNotFound,
			wantMessage: "품목을 찾을 수 없습니다",
		},
		{
			name: "unknown code falls back to the upstream message verbatim",
			err: &upstream.StatusError{
				StatusCode: http.StatusNotFound,
				ErrType:    "SomethingNewException",
				Message:    "brand new failure mode",
			},
			wantStatus:  http.StatusNotFound,
			wantMessage: "brand new failure mode",
		},
		{
			name: "bare message body passes through",
			err: &upstream.StatusError{
				StatusCode: http.StatusBadRequest,
				Message:    "query is required",
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "query is required",
		},
		{
			name: "empty body falls back to the status default",
			err: &upstream.StatusError{
				StatusCode: http.StatusTooManyRequests,
			},
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "너무 많은 요청이 발생했습니다. 잠시 후 다시 시도해주세요",
		},
		{
			name: "unmapped status falls back to the generic default",
			err: &upstream.StatusError{
				StatusCode: http.StatusConflict,
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "일시적인 오류가 발생했습니다",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := newTestTranslator().Translate(tt.err, http.MethodGet, "/api/items/99")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, "ExternalServiceError", resp.ErrorType)
		})
	}
}

func TestTranslate_ConnectionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		kind        upstream.ConnKind
		wantStatus  int
		wantMessage string
		wantType    string
	}{
		{
			name:       "refused classifies to 503 and is then redacted",
			kind:       upstream.KindRefused,
			wantStatus: http.StatusServiceUnavailable,
			// 503 is server-class, so the redaction rule overwrites the
			// network message before it reaches the client.
			wantMessage: genericServerMessage,
			wantType:    "ServerError",
		},
		{
			name:        "timeout maps to 408 and keeps its message",
			kind:        upstream.KindTimeout,
			wantStatus:  http.StatusRequestTimeout,
			wantMessage: "요청 시간이 초과되었습니다. 다시 시도해주세요",
			wantType:    "ExternalServiceError",
		},
		{
			name:        "other network failures map to 502 and are redacted",
			kind:        upstream.KindOther,
			wantStatus:  http.StatusBadGateway,
			wantMessage: genericServerMessage,
			wantType:    "ServerError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := &upstream.ConnError{Kind: tt.kind, Err: errors.New("dial tcp: boom")}
			resp := newTestTranslator().Translate(err, http.MethodGet, "/api/prices/markets")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantType, resp.ErrorType)
		})
	}
}

func TestTranslate_RedactionInvariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{
			name: "unclassified failure",
			err:  errors.New("nil pointer dereference in handler"),
		},
		{
			name: "upstream 500 with a structured body",
			err: &upstream.StatusError{
				StatusCode: http.StatusInternalServerError,
				ErrType:    "DatabaseException",
				Message:    "connection pool exhausted at 10.0.3.7:5432",
			},
		},
		{
			name: "domain error carrying a server status and details",
			err: &Error{
				Status:  http.StatusInternalServerError,
				Message: "stack trace: ...",
				ErrType: "PanicError",
				Details: map[string]any{"goroutine": 42},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := newTestTranslator().Translate(tt.err, http.MethodGet, "/api/items")

			assert.GreaterOrEqual(t, resp.StatusCode, 500)
			assert.Equal(t, genericServerMessage, resp.Message)
			assert.Equal(t, "ServerError", resp.ErrorType)
			assert.Nil(t, resp.Details, "details must never leak on server errors")
		})
	}
}

func TestTranslate_ClientErrorKeepsMessage(t *testing.T) {
	t.Parallel()

	resp := newTestTranslator().Translate(NotFound("품목을 찾을 수 없습니다"), http.MethodGet, "/api/items/99")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "품목을 찾을 수 없습니다", resp.Message)
	assert.Equal(t, "NotFound", resp.ErrorType)
}
