package models

import (
	"time"
)

// Position is the MQTT payload for one published fix.
type Position struct {
	DeviceID         string    `json:"device_id"`
	Source           string    `json:"source"`
	Timestamp        time.Time `json:"timestamp"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Accuracy         float64   `json:"accuracy"`
	Altitude         float64   `json:"altitude"`
	AltitudeAccuracy float64   `json:"altitude_accuracy"`
	Heading          float64   `json:"heading"`
	Speed            float64   `json:"speed"`
}
