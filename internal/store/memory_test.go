package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func report(id string, at time.Time) groundwater.Report {
	return groundwater.Report{ID: id, Region: "Sri Lanka", GeneratedAt: at}
}

func TestMemoryStore_LatestAndRange(t *testing.T) {
	s := NewMemoryStore(0, 0)

	_, err := s.GetLatest("Sri Lanka")
	assert.ErrorIs(t, err, ErrNotFound)

	s.SaveReport(report("a", base))
	s.SaveReport(report("b", base.Add(time.Hour)))
	s.SaveReport(report("c", base.Add(2*time.Hour)))

	latest, err := s.GetLatest("Sri Lanka")
	require.NoError(t, err)
	assert.Equal(t, "c", latest.ID)

	got, err := s.GetRange("Sri Lanka", base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	_, err = s.GetRange("Sri Lanka", base.Add(3*time.Hour), base.Add(4*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetLatest("India")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	for i, id := range []string{"a", "b", "c"} {
		s.SaveReport(report(id, base.Add(time.Duration(i)*time.Hour)))
	}

	got, err := s.GetRange("Sri Lanka", base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestMemoryStore_RetentionByAge(t *testing.T) {
	s := NewMemoryStore(0, 48*time.Hour)
	s.now = func() time.Time { return base.Add(72 * time.Hour) }

	s.SaveReport(report("old", base))
	s.SaveReport(report("recent", base.Add(48*time.Hour)))

	got, err := s.GetRange("Sri Lanka", base, base.Add(100*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)
}

func TestMemoryStore_KeepsNewestWhenAllExpired(t *testing.T) {
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return base.Add(72 * time.Hour) }

	s.SaveReport(report("a", base))
	s.SaveReport(report("b", base.Add(time.Hour)))

	latest, err := s.GetLatest("Sri Lanka")
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)

	got, err := s.GetRange("Sri Lanka", base, base.Add(100*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
