package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/pkg/models"
)

func profile(userID string, descriptor ...float64) models.FaceProfile {
	return models.FaceProfile{UserID: userID, Descriptor: descriptor}
}

func TestDistance(t *testing.T) {
	d, err := Distance([]float64{0, 0}, []float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)

	d, err = Distance([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestDistance_DimensionMismatch(t *testing.T) {
	_, err := Distance([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestDecide_MatchesSelf(t *testing.T) {
	m := NewMatcher(0.6)
	enrolled := []models.FaceProfile{
		profile("alice", 0.1, 0.2, 0.3),
		profile("bob", 0.9, 0.8, 0.7),
	}

	// A probe identical to an enrolled descriptor always matches that user.
	match, dist, err := m.Decide([]float64{0.9, 0.8, 0.7}, enrolled)
	require.NoError(t, err)
	assert.Equal(t, "bob", match.UserID)
	assert.Equal(t, 0.0, dist)
}

func TestDecide_NoFalseMatch(t *testing.T) {
	m := NewMatcher(0.6)
	enrolled := []models.FaceProfile{
		profile("alice", 0, 0, 0),
		profile("bob", 10, 10, 10),
	}

	// Far from everyone: must refuse rather than pick the nearest.
	_, _, err := m.Decide([]float64{5, 5, 5}, enrolled)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestDecide_NoEnrollments(t *testing.T) {
	m := NewMatcher(0.6)
	_, _, err := m.Decide([]float64{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrNoEnrollments)
}

func TestDecide_TieBreakIsFirstCandidate(t *testing.T) {
	m := NewMatcher(1.0)
	// Both candidates sit at exactly the same distance from the probe.
	enrolled := []models.FaceProfile{
		profile("alice", 0.5, 0),
		profile("zed", -0.5, 0),
	}

	for i := 0; i < 20; i++ {
		match, _, err := m.Decide([]float64{0, 0}, enrolled)
		require.NoError(t, err)
		assert.Equal(t, "alice", match.UserID)
	}
}

func TestDecide_SkipsMismatchedDimensions(t *testing.T) {
	m := NewMatcher(0.6)
	enrolled := []models.FaceProfile{
		profile("broken", 1, 2),
		profile("alice", 0.1, 0.2, 0.3),
	}

	match, _, err := m.Decide([]float64{0.1, 0.2, 0.3}, enrolled)
	require.NoError(t, err)
	assert.Equal(t, "alice", match.UserID)
}

func TestDecide_ThresholdIsInclusive(t *testing.T) {
	m := NewMatcher(5.0)
	enrolled := []models.FaceProfile{profile("alice", 3, 4)}

	match, dist, err := m.Decide([]float64{0, 0}, enrolled)
	require.NoError(t, err)
	assert.Equal(t, "alice", match.UserID)
	assert.Equal(t, 5.0, dist)
}
