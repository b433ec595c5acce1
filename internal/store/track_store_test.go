package store_test

import (
	"errors"
	"testing"

	"github.com/openfleet/geowatch-agent/internal/store"
	"github.com/openfleet/geowatch-agent/pkg/geowatch"
	"github.com/stretchr/testify/assert"
)

func TestTrackStore_UpdateAndGet(t *testing.T) {
	s := store.NewTrackStore()

	_, ok := s.Get("gps")
	assert.False(t, ok)
	assert.Empty(t, s.Sources())

	lat := 10.0
	s.Update("gps", geowatch.Record{Latitude: &lat})

	record, ok := s.Get("gps")
	assert.True(t, ok)
	assert.Equal(t, lat, *record.Latitude)
	assert.Equal(t, []string{"gps"}, s.Sources())
}

func TestTrackStore_ReplacesRecord(t *testing.T) {
	s := store.NewTrackStore()

	lat := 10.0
	s.Update("gps", geowatch.Record{Latitude: &lat})
	s.Update("gps", geowatch.Record{Err: errors.New("permission denied")})

	record, ok := s.Get("gps")
	assert.True(t, ok)
	assert.Nil(t, record.Latitude)
	assert.EqualError(t, record.Err, "permission denied")
	assert.Len(t, s.Sources(), 1)
}
