package models

import "time"

// Status is the periodic agent health message. Pointer fields are
// omitted when the underlying value could not be collected.
type Status struct {
	DeviceID           string    `json:"device_id"`
	Version            string    `json:"version"`
	Timestamp          time.Time `json:"timestamp"`
	UptimeSeconds      float64   `json:"uptime_seconds"`
	Tracking           bool      `json:"tracking"`
	CPUUsagePercent    *float64  `json:"cpu_usage_percent,omitempty"`
	MemoryUsagePercent *float64  `json:"memory_usage_percent,omitempty"`
	LastFixAgeSeconds  *float64  `json:"last_fix_age_seconds,omitempty"`
	LastError          string    `json:"last_error,omitempty"`
}
