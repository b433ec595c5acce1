package services_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/openfleet/geowatch-agent/internal/constants"
	"github.com/openfleet/geowatch-agent/internal/models"
	"github.com/openfleet/geowatch-agent/internal/services"
	"github.com/openfleet/geowatch-agent/internal/store"
	"github.com/openfleet/geowatch-agent/pkg/geowatch"
)

func TestStatusService_StartAndStop(t *testing.T) {
	deviceInfo := new(MockDeviceInfo)
	mqttClient := new(MockMQTTClient)

	svc := services.NewStatusService("status-topic", time.Hour, 0,
		deviceInfo, mqttClient, nil, nil, zerolog.Nop())

	assert.NoError(t, svc.Start())

	err := svc.Start()
	assert.Error(t, err)
	assert.Equal(t, "status service is already running", err.Error())

	assert.NoError(t, svc.Stop())

	err = svc.Stop()
	assert.Error(t, err)
	assert.Equal(t, "status service is not running", err.Error())
}

func TestStatusService_PublishesStatus(t *testing.T) {
	deviceInfo := new(MockDeviceInfo)
	deviceInfo.On("GetDeviceID").Return("test-device-id")

	mqttClient := new(MockMQTTClient)
	mqttClient.On("Publish", "status-topic", byte(0), false, mock.Anything).Return(&stubToken{})

	lat, lon := 10.0, 20.0
	ts := time.Now().Add(-5 * time.Second)
	acc, alt, altAcc, heading, speed := 1.0, 2.0, 3.0, 4.0, 5.0
	record := geowatch.Record{
		Latitude: &lat, Longitude: &lon, Accuracy: &acc, Altitude: &alt,
		AltitudeAccuracy: &altAcc, Heading: &heading, Speed: &speed, Timestamp: &ts,
	}

	lastRecord := func() geowatch.Record { return record }
	tracking := func() bool { return true }
	svc := services.NewStatusService("status-topic", 50*time.Millisecond, 0,
		deviceInfo, mqttClient, lastRecord, tracking, zerolog.Nop())

	assert.NoError(t, svc.Start())
	time.Sleep(150 * time.Millisecond)
	assert.NoError(t, svc.Stop())

	calls := len(mqttClient.Calls)
	assert.GreaterOrEqual(t, calls, 1)

	payload := mqttClient.Calls[0].Arguments.Get(3).([]byte)
	var message models.Status
	assert.NoError(t, json.Unmarshal(payload, &message))
	assert.Equal(t, "test-device-id", message.DeviceID)
	assert.Equal(t, constants.Version, message.Version)
	assert.True(t, message.Tracking)
	assert.NotNil(t, message.LastFixAgeSeconds)
	assert.InDelta(t, 5, *message.LastFixAgeSeconds, 2)
	assert.Empty(t, message.LastError)
}

// A source failure never reaches the track store, so the status service
// must read it off the tracking service's record.
func TestStatusService_ReportsSourceFailure(t *testing.T) {
	deviceInfo := new(MockDeviceInfo)
	deviceInfo.On("GetDeviceID").Return("test-device-id")

	mqttClient := new(MockMQTTClient)
	mqttClient.On("Publish", "status-topic", byte(0), false, mock.Anything).Return(&stubToken{})

	source := &fakeSource{}
	tracking := services.NewTrackingService("position-topic", "", 0, "gps", source,
		geowatch.Options{}, 10*time.Millisecond, 0, deviceInfo, mqttClient,
		store.NewTrackStore(), zerolog.Nop())
	assert.NoError(t, tracking.Start())
	defer tracking.Stop()

	source.watch(0).failure(errors.New("permission denied"))

	svc := services.NewStatusService("status-topic", 50*time.Millisecond, 0,
		deviceInfo, mqttClient, tracking.LastRecord, tracking.Tracking, zerolog.Nop())

	assert.NoError(t, svc.Start())
	time.Sleep(150 * time.Millisecond)
	assert.NoError(t, svc.Stop())

	assert.GreaterOrEqual(t, len(mqttClient.Calls), 1)
	payload := mqttClient.Calls[0].Arguments.Get(3).([]byte)
	var message models.Status
	assert.NoError(t, json.Unmarshal(payload, &message))
	assert.Equal(t, "permission denied", message.LastError)
	assert.Nil(t, message.LastFixAgeSeconds)
}
