package constants

// Version is the agent release version, checked against the
// configuration's minimum supported version at startup.
const Version = "1.2.0"

// Position source kinds accepted by the tracking configuration.
const (
	SourceNMEA   = "nmea"
	SourceGoogle = "google"
)

// Control commands accepted on the tracking control topic.
const (
	ControlEnable  = "enable"
	ControlDisable = "disable"
	ControlToggle  = "toggle"
)
