package httperr

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/seafood-tracker/mobile-bff/internal/upstream"
)

// genericServerMessage is the only message a client ever sees for a
// server-class failure.
const genericServerMessage = "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해주세요"

// Response is the envelope every non-2xx answer uses, regardless of where
// the failure originated.
type Response struct {
	StatusCode int            `json:"statusCode"`
	Message    string         `json:"message"`
	ErrorType  string         `json:"errorType"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path"`
}

// errTypeTranslations maps upstream domain error codes to the fixed user
// sentences shown for them. An unknown code falls back to the upstream's
// own message text.
var errTypeTranslations = map[string]string{
	// core service
	"ItemNotFoundException":      "품목을 찾을 수 없습니다",
	"PriceDataNotFoundException": "가격 데이터가 없습니다",
	"MarketNotFoundException":    "시장 정보를 찾을 수 없습니다",
	"AliasNotFoundException":     "품목 정보를 찾을 수 없습니다",
	"InvalidDateRangeException":  "잘못된 날짜 범위입니다",
	"ValidationException":        "입력 데이터가 올바르지 않습니다",

	// ML service
	"RecognitionFailedException":  "품목을 인식할 수 없습니다. 직접 검색해주세요",
	"ImageTooLargeException":      "이미지 크기가 너무 큽니다. 5MB 이하의 이미지를 사용해주세요",
	"InvalidImageFormatException": "지원하지 않는 이미지 형식입니다",
	"ModelInferenceException":     "품목을 인식할 수 없습니다. 직접 검색해주세요",

	// network
	"NetworkError":    "네트워크 연결을 확인해주세요",
	"ConnectionError": "네트워크 연결을 확인해주세요",
}

// statusDefaultMessages holds the fallback message per upstream status
// when the upstream body carried no usable message at all.
var statusDefaultMessages = map[int]string{
	http.StatusBadRequest:          "잘못된 요청입니다",
	http.StatusUnauthorized:        "인증이 필요합니다",
	http.StatusForbidden:           "접근 권한이 없습니다",
	http.StatusNotFound:            "요청한 정보를 찾을 수 없습니다",
	http.StatusRequestTimeout:      "요청 시간이 초과되었습니다",
	http.StatusUnprocessableEntity: "입력 데이터가 올바르지 않습니다",
	http.StatusTooManyRequests:     "너무 많은 요청이 발생했습니다. 잠시 후 다시 시도해주세요",
	http.StatusInternalServerError: "서버 오류가 발생했습니다",
	http.StatusBadGateway:          "외부 서비스 오류가 발생했습니다",
	http.StatusServiceUnavailable:  "서비스를 일시적으로 사용할 수 없습니다",
	http.StatusGatewayTimeout:      "외부 서비스 응답 시간이 초과되었습니다",
}

// Translator is the single boundary every failure passes through before it
// reaches the client.
type Translator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewTranslator creates a Translator. If the logger is nil, a no-op logger
// writing to io.Discard will be used. If now is nil, time.Now is used.
func NewTranslator(logger *slog.Logger, now func() time.Time) *Translator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if now == nil {
		now = time.Now
	}

	return &Translator{logger: logger, now: now}
}

// Translate classifies a failure into the stable response envelope.
// Classification runs first; the redaction rule runs last and
// unconditionally overwrites message, errorType, and details for any
// resulting status >= 500, so internal detail never reaches the client on
// server errors. The original failure is logged at error severity for
// server errors and at warn severity, with request context, for client
// errors.
func (t *Translator) Translate(err error, method, path string) Response {
	status := http.StatusInternalServerError
	message := genericServerMessage
	errType := "InternalServerError"
	var details map[string]any

	var domainErr *Error
	var statusErr *upstream.StatusError
	var connErr *upstream.ConnError

	switch {
	case errors.As(err, &domainErr):
		status = domainErr.Status
		if domainErr.Message != "" {
			message = domainErr.Message
		}
		if domainErr.ErrType != "" {
			errType = domainErr.ErrType
		}
		details = domainErr.Details

	case errors.As(err, &statusErr):
		status = statusErr.StatusCode
		errType = "ExternalServiceError"
		switch {
		case statusErr.ErrType != "" || statusErr.Message != "":
			message = translateErrType(statusErr.ErrType, statusErr.Message)
		default:
			message = defaultMessageForStatus(status)
		}

	case errors.As(err, &connErr):
		errType = "ExternalServiceError"
		switch connErr.Kind {
		case upstream.KindRefused:
			status = http.StatusServiceUnavailable
			message = "네트워크 연결을 확인해주세요"
		case upstream.KindTimeout:
			status = http.StatusRequestTimeout
			message = "요청 시간이 초과되었습니다. 다시 시도해주세요"
		default:
			status = http.StatusBadGateway
			message = "외부 서비스 오류가 발생했습니다"
		}
	}

	if status >= 500 {
		t.logger.Error("server error",
			"method", method,
			"path", path,
			"status", status,
			"error", err)
		message = genericServerMessage
		errType = "ServerError"
		details = nil
	} else {
		t.logger.Warn("client error",
			"method", method,
			"path", path,
			"status", status,
			"errorType", errType,
			"message", message)
	}

	return Response{
		StatusCode: status,
		Message:    message,
		ErrorType:  errType,
		Details:    details,
		Timestamp:  t.now().UTC().Format(time.RFC3339),
		Path:       path,
	}
}

func translateErrType(errType, originalMessage string) string {
	if translated, ok := errTypeTranslations[errType]; ok {
		return translated
	}
	return originalMessage
}

func defaultMessageForStatus(status int) string {
	if message, ok := statusDefaultMessages[status]; ok {
		return message
	}
	return "일시적인 오류가 발생했습니다"
}
