package service_registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfleet/geowatch-agent/internal/constants"
	"github.com/openfleet/geowatch-agent/internal/registry"
	"github.com/openfleet/geowatch-agent/internal/services"
	"github.com/openfleet/geowatch-agent/internal/store"
	"github.com/openfleet/geowatch-agent/internal/utils"
	"github.com/openfleet/geowatch-agent/pkg/file"
	"github.com/openfleet/geowatch-agent/pkg/geowatch"
	"github.com/openfleet/geowatch-agent/pkg/identity"
	"github.com/openfleet/geowatch-agent/pkg/mqtt"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	fileClient  file.FileOperations
	trackStore  *store.TrackStore
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, fileClient file.FileOperations,
	trackStore *store.TrackStore, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		fileClient: fileClient,
		trackStore: trackStore,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface) error {
	var tracking *services.TrackingService

	if config.Services.Tracking.Enabled {
		source, err := sr.buildSource(config)
		if err != nil {
			sr.Logger.Error().Err(err).Msg("Failed to initialize position source")
			return err
		}

		opts := geowatch.Options{
			HighAccuracy: config.Services.Tracking.HighAccuracy,
			MaximumAge:   config.Services.Tracking.MaximumAge * time.Second,
			Timeout:      config.Services.Tracking.Timeout * time.Second,
		}
		tracking = services.NewTrackingService(
			config.Services.Tracking.Topic,
			config.Services.Tracking.ControlTopic,
			config.Services.Tracking.QOS,
			config.Services.Tracking.Source,
			source,
			opts,
			config.Services.Tracking.PublishDebounce*time.Second,
			config.Services.Tracking.StaleAfter*time.Second,
			deviceInfo,
			sr.mqttClient,
			sr.trackStore,
			sr.Logger,
		)
		sr.RegisterService("tracking", tracking)
	}

	if config.Services.Status.Enabled {
		var trackingState func() bool
		var lastRecord func() geowatch.Record
		if tracking != nil {
			trackingState = tracking.Tracking
			lastRecord = tracking.LastRecord
		}
		sr.RegisterService("status", services.NewStatusService(
			config.Services.Status.Topic,
			config.Services.Status.Interval*time.Second,
			config.Services.Status.QOS,
			deviceInfo,
			sr.mqttClient,
			lastRecord,
			trackingState,
			sr.Logger,
		))
	}

	return nil
}

// buildSource constructs the configured position source. An empty source
// kind is allowed: the watcher then simply never subscribes.
func (sr *ServiceRegistry) buildSource(config *utils.Config) (geowatch.Source, error) {
	switch config.Services.Tracking.Source {
	case constants.SourceNMEA:
		return geowatch.NewNMEASource(
			config.Services.Tracking.GPSDevicePort,
			config.Services.Tracking.GPSBaudRate,
			sr.Logger,
		), nil
	case constants.SourceGoogle:
		return geowatch.NewGoogleSource(
			config.Services.Tracking.MapsAPIKey,
			config.Services.Tracking.PollInterval*time.Second,
			sr.Logger,
		)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown position source %q", config.Services.Tracking.Source)
	}
}
