package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
)

// DetectionService runs material recognition on listing photos and
// aggregates the raw label counts into a composition summary. It only
// returns structured results; what to do with them (prefill a form,
// suggest a category) is the caller's decision.
type DetectionService struct {
	detector ports.MaterialDetector
}

// NewDetectionService creates a new DetectionService.
func NewDetectionService(detector ports.MaterialDetector) *DetectionService {
	return &DetectionService{detector: detector}
}

// Detect labels the image and returns counts plus each label's share of
// the total, sorted by count descending.
func (s *DetectionService) Detect(ctx context.Context, image []byte, filename string) ([]domain.LabelCount, []domain.MaterialShare, error) {
	if len(image) == 0 {
		return nil, nil, fmt.Errorf("detect: empty image")
	}

	counts, err := s.detector.Detect(ctx, image, filename)
	if err != nil {
		return nil, nil, fmt.Errorf("detect: %w", err)
	}

	// Merge duplicate labels; some models emit one entry per instance.
	merged := make(map[string]int)
	for _, c := range counts {
		if c.Label == "" || c.Count <= 0 {
			continue
		}
		merged[c.Label] += c.Count
	}

	total := 0
	out := make([]domain.LabelCount, 0, len(merged))
	for label, n := range merged {
		out = append(out, domain.LabelCount{Label: label, Count: n})
		total += n
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})

	shares := make([]domain.MaterialShare, 0, len(out))
	for _, c := range out {
		shares = append(shares, domain.MaterialShare{
			Label:   c.Label,
			Count:   c.Count,
			Percent: 100 * float64(c.Count) / float64(total),
		})
	}

	return out, shares, nil
}
