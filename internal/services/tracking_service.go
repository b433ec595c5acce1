package services

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/openfleet/geowatch-agent/internal/constants"
	"github.com/openfleet/geowatch-agent/internal/models"
	"github.com/openfleet/geowatch-agent/internal/store"
	"github.com/openfleet/geowatch-agent/internal/utils"
	"github.com/openfleet/geowatch-agent/pkg/debounce"
	"github.com/openfleet/geowatch-agent/pkg/geowatch"
	"github.com/openfleet/geowatch-agent/pkg/identity"
	"github.com/openfleet/geowatch-agent/pkg/mqtt"
	"github.com/openfleet/geowatch-agent/pkg/timer"
	"github.com/openfleet/geowatch-agent/pkg/toggle"
)

// TrackingService watches a position source and publishes every settled
// fix to the MQTT broker. Bursts of fixes are debounced into a single
// publish, a watchdog flags sources that go quiet, and an optional
// control topic lets the backend enable and disable tracking remotely.
type TrackingService struct {
	// Configuration fields
	topic        string
	controlTopic string
	qos          int
	sourceName   string

	// Dependencies
	deviceInfo identity.DeviceInfoInterface
	mqttClient mqtt.MQTTClient
	trackStore *store.TrackStore
	logger     zerolog.Logger

	// Internal state management
	watcher   *geowatch.Watcher
	publisher *debounce.Debouncer
	watchdog  *timer.Resettable
	tracking  *toggle.Toggle

	mu         sync.Mutex
	workerPool *utils.WorkerPool
	running    bool
}

// NewTrackingService creates a new TrackingService instance with the provided configuration.
func NewTrackingService(topic, controlTopic string, qos int, sourceName string, source geowatch.Source,
	opts geowatch.Options, publishDebounce, staleAfter time.Duration, deviceInfo identity.DeviceInfoInterface,
	mqttClient mqtt.MQTTClient, trackStore *store.TrackStore, logger zerolog.Logger) *TrackingService {

	s := &TrackingService{
		topic:        topic,
		controlTopic: controlTopic,
		qos:          qos,
		sourceName:   sourceName,
		deviceInfo:   deviceInfo,
		mqttClient:   mqttClient,
		trackStore:   trackStore,
		logger:       logger,
		publisher:    debounce.New(publishDebounce),
	}

	s.watcher = geowatch.NewWatcher(source, opts, s.handleRecord, logger)
	s.tracking = toggle.New(true, s.handleTrackingChange)
	if staleAfter > 0 {
		s.watchdog = timer.New(nil, staleAfter, s.handleStale)
	}

	return s
}

// Start subscribes to the position source and, when configured, the
// control topic.
func (s *TrackingService) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("TrackingService is already running")
		return errors.New("tracking service is already running")
	}
	s.running = true
	s.workerPool = utils.NewWorkerPool(1, 8)
	s.mu.Unlock()

	if s.controlTopic != "" {
		token := s.mqttClient.Subscribe(s.controlTopic, byte(s.qos), s.handleControlMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			s.logger.Error().Err(err).Str("topic", s.controlTopic).Msg("Failed to subscribe to control topic")
			s.mu.Lock()
			s.running = false
			pool := s.workerPool
			s.workerPool = nil
			s.mu.Unlock()
			pool.Shutdown()
			return err
		}
	}

	s.watcher.Start()
	if s.watchdog != nil {
		s.watchdog.Reset()
	}

	s.logger.Info().
		Str("topic", s.topic).
		Str("source", s.sourceName).
		Int("qos", s.qos).
		Msg("TrackingService started")
	return nil
}

// Stop releases the position subscription and all pending work.
func (s *TrackingService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("TrackingService is not running")
		return errors.New("tracking service is not running")
	}
	s.running = false
	pool := s.workerPool
	s.workerPool = nil
	s.mu.Unlock()

	if s.controlTopic != "" {
		s.mqttClient.Unsubscribe(s.controlTopic).Wait()
	}
	s.watcher.Stop()
	if s.watchdog != nil {
		s.watchdog.Clear()
	}
	s.publisher.Stop()
	pool.Shutdown()

	s.logger.Info().Msg("TrackingService stopped")
	return nil
}

// Tracking reports whether position tracking is currently enabled.
func (s *TrackingService) Tracking() bool {
	return s.tracking.On()
}

// LastRecord returns the watcher's current record. Unlike the track
// store it also carries source failures.
func (s *TrackingService) LastRecord() geowatch.Record {
	return s.watcher.Record()
}

// handleRecord receives every successful record from the watcher. The
// record lands in the store immediately; publishing is debounced so a
// burst of fixes becomes one message carrying the latest one.
func (s *TrackingService) handleRecord(record geowatch.Record) {
	s.trackStore.Update(s.sourceName, record)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.watchdog != nil {
		s.watchdog.Reset()
	}
	s.publisher.Trigger(s.publishLatest)
}

// publishLatest hands the publish to the worker pool so the debounce
// timer goroutine is never blocked on the broker.
func (s *TrackingService) publishLatest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.workerPool.Submit(s.publishPosition)
}

// publishPosition publishes the latest stored fix to the MQTT broker.
func (s *TrackingService) publishPosition() {
	record, ok := s.trackStore.Get(s.sourceName)
	if !ok || !record.HasFix() {
		return
	}

	message := models.Position{
		DeviceID:         s.deviceInfo.GetDeviceID(),
		Source:           s.sourceName,
		Timestamp:        *record.Timestamp,
		Latitude:         *record.Latitude,
		Longitude:        *record.Longitude,
		Accuracy:         *record.Accuracy,
		Altitude:         *record.Altitude,
		AltitudeAccuracy: *record.AltitudeAccuracy,
		Heading:          *record.Heading,
		Speed:            *record.Speed,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to serialize position message")
		return
	}

	token := s.mqttClient.Publish(s.topic, byte(s.qos), false, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		s.logger.Error().Err(err).Str("topic", s.topic).Msg("Failed to publish position message")
		return
	}
	s.logger.Debug().
		Str("topic", s.topic).
		Float64("latitude", message.Latitude).
		Float64("longitude", message.Longitude).
		Msg("Position published successfully")
}

// handleControlMessage reacts to commands on the control topic.
func (s *TrackingService) handleControlMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	command := strings.ToLower(strings.TrimSpace(string(msg.Payload())))
	switch command {
	case constants.ControlEnable:
		s.tracking.Set(true)
	case constants.ControlDisable:
		s.tracking.Set(false)
	case constants.ControlToggle:
		s.tracking.Toggle()
	default:
		s.logger.Warn().Str("command", command).Msg("Ignoring unknown tracking control command")
	}
}

// handleTrackingChange propagates control transitions to the watcher.
func (s *TrackingService) handleTrackingChange(on bool) {
	s.watcher.SetEnabled(on)
	if s.watchdog != nil {
		if on {
			s.watchdog.Reset()
		} else {
			s.watchdog.Clear()
		}
	}
	s.logger.Info().Bool("tracking", on).Msg("Tracking state changed")
}

// handleStale fires when no fix arrived within the stale window.
func (s *TrackingService) handleStale() {
	s.logger.Warn().Str("source", s.sourceName).Msg("No position fix within the stale window")
}
