package services_test

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"

	"github.com/openfleet/geowatch-agent/pkg/geowatch"
	"github.com/openfleet/geowatch-agent/pkg/identity"
)

// stubToken is a paho token that completes immediately.
type stubToken struct {
	err error
}

func (t *stubToken) Wait() bool                     { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }
func (t *stubToken) Error() error                   { return t.err }
func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// MockMQTTClient mocks the MQTT client used by the services.
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() pahomqtt.Token {
	args := m.Called()
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	args := m.Called(topic, qos, callback)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) pahomqtt.Token {
	args := m.Called(topics)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

// MockDeviceInfo mocks the device identity dependency.
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo() error {
	return m.Called().Error(0)
}

func (m *MockDeviceInfo) GetDeviceID() string {
	return m.Called().String(0)
}

func (m *MockDeviceInfo) GetDeviceIdentity() *identity.Identity {
	args := m.Called()
	return args.Get(0).(*identity.Identity)
}

// stubMessage carries a control payload into the message handler.
type stubMessage struct {
	topic   string
	payload []byte
}

func (m *stubMessage) Duplicate() bool   { return false }
func (m *stubMessage) Qos() byte         { return 0 }
func (m *stubMessage) Retained() bool    { return false }
func (m *stubMessage) Topic() string     { return m.topic }
func (m *stubMessage) MessageID() uint16 { return 0 }
func (m *stubMessage) Payload() []byte   { return m.payload }
func (m *stubMessage) Ack()              {}

// fakeWatch is one standing subscription handed out by fakeSource.
type fakeWatch struct {
	mu       sync.Mutex
	success  func(geowatch.Reading)
	failure  func(error)
	releases int
}

func (f *fakeWatch) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
}

func (f *fakeWatch) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases
}

// fakeSource is a scripted position source driven from the tests.
type fakeSource struct {
	mu      sync.Mutex
	watches []*fakeWatch
}

func (f *fakeSource) Current(opts geowatch.Options, success func(geowatch.Reading), failure func(error)) {
}

func (f *fakeSource) Watch(opts geowatch.Options, success func(geowatch.Reading), failure func(error)) geowatch.Subscription {
	w := &fakeWatch{success: success, failure: failure}
	f.mu.Lock()
	f.watches = append(f.watches, w)
	f.mu.Unlock()
	return w
}

func (f *fakeSource) watchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watches)
}

func (f *fakeSource) watch(i int) *fakeWatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watches[i]
}
