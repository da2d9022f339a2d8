// Package server exposes the gateway over HTTP. Routing is an explicit
// method+path table; every handler decodes its own inputs and funnels any
// failure through the translation boundary so all non-2xx responses share
// one envelope.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/seafood-tracker/mobile-bff/internal/catalog"
	"github.com/seafood-tracker/mobile-bff/internal/httperr"
	"github.com/seafood-tracker/mobile-bff/internal/recognition"
)

// maxUploadBytes caps the multipart request body well above the pipeline's
// 5 MiB image gate, so the gate itself stays the authoritative check.
const maxUploadBytes = 16 << 20

type Server struct {
	catalog    *catalog.Service
	recognizer *recognition.Service
	translator *httperr.Translator
	logger     *slog.Logger
}

func New(catalogSvc *catalog.Service, recognizer *recognition.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		catalog:    catalogSvc,
		recognizer: recognizer,
		translator: httperr.NewTranslator(logger, nil),
		logger:     logger,
	}
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/items", s.handleSearch)
	mux.HandleFunc("GET /api/items/{id}", s.handleGetItem)
	mux.HandleFunc("GET /api/items/{id}/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/prices/markets", s.handleMarkets)
	mux.HandleFunc("POST /api/recognition", s.handleRecognize)

	return s.withCORS(s.withRequestLog(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.writeError(w, r, httperr.BadRequest("검색어가 필요합니다"))
		return
	}

	items, err := s.catalog.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]catalog.Item{"items": items})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseItemID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.catalog.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseItemID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			s.writeError(w, r, httperr.BadRequest("날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)"))
			return
		}
	}

	dashboard, err := s.catalog.GetDashboard(r.Context(), id, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.catalog.Markets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, markets)
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, r, httperr.BadRequest("이미지 파일이 필요합니다"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, httperr.BadRequest("이미지 파일을 읽을 수 없습니다"))
		return
	}

	result, err := s.recognizer.Recognize(r.Context(), image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func parseItemID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, httperr.BadRequest("품목 ID가 올바르지 않습니다")
	}
	return id, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := s.translator.Translate(err, r.Method, r.URL.RequestURI())
	s.writeJSON(w, resp.StatusCode, resp)
}
