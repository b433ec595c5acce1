package geowatch

import "time"

// Reading is a single successful fix delivered by a position source.
type Reading struct {
	Latitude         float64
	Longitude        float64
	Accuracy         float64
	Altitude         float64
	AltitudeAccuracy float64
	Heading          float64
	Speed            float64
	Timestamp        time.Time
}

// Record is the normalized state exposed by a Watcher. It is replaced
// wholesale on every reading or failure, never merged: either all value
// fields are populated and Err is nil, or all value fields are nil and
// Err is set. A freshly created watcher exposes the zero Record, where
// everything is absent.
type Record struct {
	Latitude         *float64
	Longitude        *float64
	Accuracy         *float64
	Altitude         *float64
	AltitudeAccuracy *float64
	Heading          *float64
	Speed            *float64
	Timestamp        *time.Time
	Err              error
}

// HasFix reports whether the record holds a successful reading.
func (r Record) HasFix() bool {
	return r.Err == nil && r.Latitude != nil
}

// successRecord builds a Record from a reading, copying every field verbatim.
func successRecord(reading Reading) Record {
	ts := reading.Timestamp
	return Record{
		Latitude:         &reading.Latitude,
		Longitude:        &reading.Longitude,
		Accuracy:         &reading.Accuracy,
		Altitude:         &reading.Altitude,
		AltitudeAccuracy: &reading.AltitudeAccuracy,
		Heading:          &reading.Heading,
		Speed:            &reading.Speed,
		Timestamp:        &ts,
	}
}

// failureRecord builds a Record carrying only the source error.
func failureRecord(err error) Record {
	return Record{Err: err}
}
