package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/openfleet/geowatch-agent/internal/constants"
	"github.com/openfleet/geowatch-agent/internal/models"
	"github.com/openfleet/geowatch-agent/pkg/geowatch"
	"github.com/openfleet/geowatch-agent/pkg/identity"
	"github.com/openfleet/geowatch-agent/pkg/mqtt"
)

// StatusService periodically publishes agent health: version, uptime,
// host utilization and the age of the freshest position fix. It reads
// the watcher's record rather than the track store so source failures,
// which never reach the store, still surface as last_error.
type StatusService struct {
	topic    string
	interval time.Duration
	qos      int

	deviceInfo    identity.DeviceInfoInterface
	mqttClient    mqtt.MQTTClient
	lastRecord    func() geowatch.Record
	trackingState func() bool
	logger        zerolog.Logger

	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewStatusService initializes a new StatusService. lastRecord and
// trackingState may be nil when no tracking service is registered.
func NewStatusService(topic string, interval time.Duration, qos int,
	deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.MQTTClient,
	lastRecord func() geowatch.Record, trackingState func() bool, logger zerolog.Logger) *StatusService {

	return &StatusService{
		topic:         topic,
		interval:      interval,
		qos:           qos,
		deviceInfo:    deviceInfo,
		mqttClient:    mqttClient,
		lastRecord:    lastRecord,
		trackingState: trackingState,
		logger:        logger,
	}
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.startedAt = time.Now()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.logger.Info().Str("topic", s.topic).Dur("interval", s.interval).Msg("StatusService started")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("StatusService stopped")
	return nil
}

// runStatusLoop publishes a status message at the configured interval.
func (s *StatusService) runStatusLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.publishStatus()
		case <-s.ctx.Done():
			s.logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

// publishStatus collects and publishes one status message.
func (s *StatusService) publishStatus() {
	message := models.Status{
		DeviceID:      s.deviceInfo.GetDeviceID(),
		Version:       constants.Version,
		Timestamp:     time.Now(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
	if s.trackingState != nil {
		message.Tracking = s.trackingState()
	}

	if cpuPercentages, err := cpu.Percent(0, false); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to collect CPU usage")
	} else if len(cpuPercentages) > 0 {
		message.CPUUsagePercent = &cpuPercentages[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to collect memory usage")
	} else {
		message.MemoryUsagePercent = &vm.UsedPercent
	}

	if s.lastRecord != nil {
		record := s.lastRecord()
		if record.HasFix() {
			age := time.Since(*record.Timestamp).Seconds()
			message.LastFixAgeSeconds = &age
		} else if record.Err != nil {
			message.LastError = record.Err.Error()
		}
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to serialize status message")
		return
	}

	token := s.mqttClient.Publish(s.topic, byte(s.qos), false, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		s.logger.Error().Err(err).Str("topic", s.topic).Msg("Failed to publish status message")
		return
	}
	s.logger.Debug().Msg("Status published successfully")
}
