// Package face implements biometric identification: descriptor extraction
// via an external service and nearest-neighbor matching over enrolled
// profiles.
package face

import (
	"errors"
	"fmt"
	"math"

	"github.com/facegate/facegate/pkg/models"
)

var (
	// ErrNoMatch indicates the probe was a valid face but no enrolled
	// profile is within the threshold.
	ErrNoMatch = errors.New("no enrolled profile matches the probe")

	// ErrNoEnrollments indicates matching was attempted against an empty
	// enrollment set.
	ErrNoEnrollments = errors.New("no face profiles enrolled")

	// ErrNoFace indicates the extractor found no usable face in the image.
	ErrNoFace = errors.New("no face detected in image")
)

// Distance returns the Euclidean distance between two descriptors.
func Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("descriptor dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Matcher decides identity by nearest neighbor under a distance threshold.
type Matcher struct {
	// Threshold is the maximum distance at which a probe is considered the
	// same person as an enrolled profile.
	Threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

// Decide scans candidates for the profile nearest to probe. Candidates with
// a different descriptor dimension are skipped. When two candidates are at
// exactly the same distance the one enumerated first wins, so the result is
// deterministic for a given candidate order.
func (m *Matcher) Decide(probe []float64, candidates []models.FaceProfile) (*models.FaceProfile, float64, error) {
	if len(candidates) == 0 {
		return nil, 0, ErrNoEnrollments
	}

	var best *models.FaceProfile
	bestDist := math.Inf(1)
	for i := range candidates {
		dist, err := Distance(probe, candidates[i].Descriptor)
		if err != nil {
			continue
		}
		if dist < bestDist {
			bestDist = dist
			best = &candidates[i]
		}
	}

	if best == nil || bestDist > m.Threshold {
		return nil, bestDist, ErrNoMatch
	}
	return best, bestDist, nil
}
