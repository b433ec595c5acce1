// Package store keeps the most recent position record per source so
// that the publish path can read the latest fix without coordinating
// with the watcher callback goroutines.
package store

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/openfleet/geowatch-agent/pkg/geowatch"
)

// TrackStore holds the latest record for each named source.
type TrackStore struct {
	records cmap.ConcurrentMap[string, geowatch.Record]
}

// NewTrackStore creates an empty TrackStore.
func NewTrackStore() *TrackStore {
	return &TrackStore{
		records: cmap.New[geowatch.Record](),
	}
}

// Update replaces the record held for the given source.
func (s *TrackStore) Update(source string, record geowatch.Record) {
	s.records.Set(source, record)
}

// Get returns the latest record for the given source.
func (s *TrackStore) Get(source string) (geowatch.Record, bool) {
	return s.records.Get(source)
}

// Sources lists the sources that have reported at least once.
func (s *TrackStore) Sources() []string {
	return s.records.Keys()
}
