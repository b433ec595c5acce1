package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfleet/geowatch-agent/internal/constants"
	"github.com/openfleet/geowatch-agent/internal/service_registry"
	"github.com/openfleet/geowatch-agent/internal/store"
	"github.com/openfleet/geowatch-agent/internal/utils"
	"github.com/openfleet/geowatch-agent/pkg/file"
	"github.com/openfleet/geowatch-agent/pkg/identity"
	"github.com/openfleet/geowatch-agent/pkg/mqtt"
)

func main() {
	// Set up structured logging
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Refuse configurations written for a newer agent
	if err := utils.EnsureVersion(constants.Version, config.Agent.MinVersion); err != nil {
		logger.Fatal().Err(err).Msg("Configuration version check failed")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient)
	err = mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate,
		mqtt.Credentials{Username: config.MQTT.Username, Password: config.MQTT.Password})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device information")
	}
	logger.Info().Str("device_id", deviceInfo.GetDeviceID()).Msg("Device identity loaded")

	// Shared latest-position store
	trackStore := store.NewTrackStore()

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, fileClient, trackStore, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config, deviceInfo); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop some services")
	}
	mqttClient.Disconnect(250)
	logger.Info().Msg("Shutdown complete")
}
