// Package recognition turns a raw uploaded image into validated, enriched,
// user-ready catalog candidates. The pipeline degrades gracefully: a failed
// lookup for one label drops that label, never the batch.
package recognition

import (
	"context"
	"io"
	"log/slog"
	"net/url"

	"github.com/seafood-tracker/mobile-bff/internal/catalog"
	"github.com/seafood-tracker/mobile-bff/internal/httperr"
)

const (
	// MaxImageSize is the inclusive upper bound on an uploaded image.
	MaxImageSize = 5 * 1024 * 1024

	// maxCandidates bounds the list returned to the mobile client.
	maxCandidates = 4
)

// Candidate pairs a mapped catalog item with the ML confidence of the
// label that produced it.
type Candidate struct {
	ItemID     int     `json:"item_id"`
	ItemName   string  `json:"item_name"`
	Confidence float64 `json:"confidence"`
}

// Result is the mobile-facing recognition response.
type Result struct {
	Candidates []Candidate `json:"candidates"`
}

type mlLabel struct {
	ItemName   string  `json:"item_name"`
	Confidence float64 `json:"confidence"`
}

type mlResponse struct {
	Results []mlLabel `json:"results"`
}

// UpstreamClient is the slice of the upstream client the pipeline needs:
// ML inference plus per-label catalog lookups. Label lookups bypass the
// cache on purpose; label text is unbounded and would pollute the search
// key space.
type UpstreamClient interface {
	GetCore(ctx context.Context, path string, dest any) error
	PostML(ctx context.Context, path string, image []byte, dest any) error
}

type Service struct {
	client UpstreamClient
	logger *slog.Logger
}

func New(client UpstreamClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{client: client, logger: logger}
}

// Recognize runs the full pipeline: size gate, ML inference, label-to-item
// mapping, top-N truncation. An unrecognizable image is a normal outcome
// and surfaces as a client error; only an unreachable ML service is
// reported as a service failure.
func (s *Service) Recognize(ctx context.Context, image []byte) (Result, error) {
	if len(image) > MaxImageSize {
		return Result{}, httperr.BadRequest("이미지 크기는 5MB를 초과할 수 없습니다")
	}

	var ml mlResponse
	if err := s.client.PostML(ctx, "/recognize", image, &ml); err != nil {
		// fatal for the request, no retry; "try again later", not
		// "your input is bad"
		s.logger.ErrorContext(ctx, "ml service call failed", "error", err)
		return Result{}, httperr.ServiceUnavailable("이미지 인식 서비스에 연결할 수 없습니다")
	}

	if len(ml.Results) == 0 {
		return Result{}, httperr.BadRequest("품목을 인식할 수 없습니다. 직접 검색해주세요")
	}

	candidates := s.mapToItems(ctx, ml.Results)
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	// zero candidates after mapping is still a success: every label
	// existed, none resolved to a catalog item
	return Result{Candidates: candidates}, nil
}

// mapToItems resolves each ML label to a catalog item by exact label text,
// in label order. The first search hit per label is authoritative. A
// lookup failure or a label with no hits is skipped with a diagnostic log
// and never aborts the batch.
func (s *Service) mapToItems(ctx context.Context, labels []mlLabel) []Candidate {
	candidates := make([]Candidate, 0, len(labels))

	for _, label := range labels {
		var out struct {
			Items []catalog.Item `json:"items"`
		}
		if err := s.client.GetCore(ctx, "/items?query="+url.QueryEscape(label.ItemName), &out); err != nil {
			s.logger.WarnContext(ctx, "label mapping lookup failed, skipping label",
				"label", label.ItemName,
				"error", err)
			continue
		}

		if len(out.Items) == 0 {
			s.logger.WarnContext(ctx, "no catalog item for label, skipping label",
				"label", label.ItemName)
			continue
		}

		item := out.Items[0]
		candidates = append(candidates, Candidate{
			ItemID:     item.ID,
			ItemName:   item.NameKo,
			Confidence: label.Confidence,
		})
	}

	return candidates
}
