package utils

import (
	"time"

	"github.com/openfleet/geowatch-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Agent struct {
		MinVersion string `yaml:"min_version"` // Minimum agent version this configuration supports
	} `yaml:"agent"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate (empty disables TLS)
		Username      string `yaml:"username"`       // Optional broker username
		Password      string `yaml:"password"`       // Optional broker password
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Services struct {
		Tracking struct {
			Topic           string        `yaml:"topic"`            // MQTT topic for position messages
			ControlTopic    string        `yaml:"control_topic"`    // MQTT topic for enable/disable commands (empty disables control)
			Enabled         bool          `yaml:"enabled"`          // Enable/disable tracking service
			QOS             int           `yaml:"qos"`              // MQTT QoS level for position messages
			Source          string        `yaml:"source"`           // Position source: "nmea" or "google"
			HighAccuracy    bool          `yaml:"high_accuracy"`    // High-accuracy hint forwarded to the source
			MaximumAge      time.Duration `yaml:"maximum_age"`      // Acceptable age for cached fixes (in seconds)
			Timeout         time.Duration `yaml:"timeout"`          // Per-request timeout forwarded to the source (in seconds)
			PublishDebounce time.Duration `yaml:"publish_debounce"` // Quiet period before publishing a burst of fixes (in seconds)
			StaleAfter      time.Duration `yaml:"stale_after"`      // Warn when no fix arrives within this window (in seconds)
			GPSDevicePort   string        `yaml:"gps_device_port"`  // Serial port where the GPS sensor is mounted
			GPSBaudRate     int           `yaml:"gps_baud_rate"`    // Baud rate for the GPS sensor
			MapsAPIKey      string        `yaml:"maps_api_key"`     // Google Maps API key
			PollInterval    time.Duration `yaml:"poll_interval"`    // Poll interval for the Google geolocation source (in seconds)
		} `yaml:"tracking"`

		Status struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for status messages
			Enabled  bool          `yaml:"enabled"`  // Enable/disable status service
			Interval time.Duration `yaml:"interval"` // Interval between status messages (in seconds)
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status messages
		} `yaml:"status"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
