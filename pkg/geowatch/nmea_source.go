package geowatch

import (
	"bufio"
	"errors"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

const (
	// knotsToMetersPerSecond converts RMC ground speed to m/s.
	knotsToMetersPerSecond = 0.514444

	// highAccuracyHDOP is the HDOP ceiling for fixes accepted when the
	// high-accuracy hint is set.
	highAccuracyHDOP = 2.0

	// defaultCurrentTimeout bounds a one-shot read when the caller did
	// not supply a timeout.
	defaultCurrentTimeout = 10 * time.Second
)

// NMEASource reads position fixes from a GPS device connected via a
// serial port, combining GGA, RMC and GSA sentences into readings.
type NMEASource struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	logger   zerolog.Logger

	mu          sync.Mutex
	lastReading Reading
	haveReading bool
}

// NewNMEASource creates an NMEASource for the given port and baud rate.
func NewNMEASource(port string, baudRate int, logger zerolog.Logger) *NMEASource {
	return &NMEASource{
		port:     port,
		baudRate: baudRate,
		logger:   logger,
	}
}

// Current delivers a single fix. A cached fix younger than MaximumAge is
// served without touching the device; otherwise the port is opened and
// read until the first acceptable fix or the timeout.
func (n *NMEASource) Current(opts Options, success func(Reading), failure func(error)) {
	if cached, ok := n.cached(opts.MaximumAge); ok {
		go success(cached)
		return
	}

	go func() {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultCurrentTimeout
		}

		s, err := serial.OpenPort(&serial.Config{Name: n.port, Baud: n.baudRate, ReadTimeout: timeout})
		if err != nil {
			failure(err)
			return
		}
		defer s.Close()

		deadline := time.Now().Add(timeout)
		assembler := fixAssembler{highAccuracy: opts.HighAccuracy}
		scanner := bufio.NewScanner(s)
		for scanner.Scan() {
			if reading, ok := assembler.consume(scanner.Text()); ok {
				n.remember(reading)
				success(reading)
				return
			}
			if time.Now().After(deadline) {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			failure(err)
			return
		}
		failure(errors.New("timed out waiting for a GPS fix"))
	}()
}

// Watch opens the port and keeps delivering fixes until the subscription
// is released. Open and read errors are reported through the failure
// callback; the subscription is then dead and must be re-established by
// the caller.
func (n *NMEASource) Watch(opts Options, success func(Reading), failure func(error)) Subscription {
	sub := &serialSubscription{}
	go n.run(sub, opts, success, failure)
	return sub
}

func (n *NMEASource) run(sub *serialSubscription, opts Options, success func(Reading), failure func(error)) {
	s, err := serial.OpenPort(&serial.Config{Name: n.port, Baud: n.baudRate})
	if err != nil {
		failure(err)
		return
	}
	if !sub.attach(s) {
		// Released before the port came up.
		s.Close()
		return
	}

	n.logger.Debug().Str("port", n.port).Int("baud_rate", n.baudRate).Msg("GPS serial stream opened")

	assembler := fixAssembler{highAccuracy: opts.HighAccuracy}
	scanner := bufio.NewScanner(s)
	for scanner.Scan() {
		if sub.released() {
			return
		}
		if reading, ok := assembler.consume(scanner.Text()); ok {
			n.remember(reading)
			success(reading)
		}
	}

	if sub.released() {
		return
	}
	if err := scanner.Err(); err != nil {
		failure(err)
		return
	}
	failure(errors.New("GPS serial stream ended"))
}

func (n *NMEASource) cached(maxAge time.Duration) (Reading, bool) {
	if maxAge <= 0 {
		return Reading{}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.haveReading || time.Since(n.lastReading.Timestamp) > maxAge {
		return Reading{}, false
	}
	return n.lastReading, true
}

func (n *NMEASource) remember(reading Reading) {
	n.mu.Lock()
	n.lastReading = reading
	n.haveReading = true
	n.mu.Unlock()
}

// serialSubscription owns the serial port of one standing watch. Release
// closes the port, which unblocks the reader goroutine.
type serialSubscription struct {
	mu     sync.Mutex
	port   *serial.Port
	closed bool
}

func (s *serialSubscription) attach(port *serial.Port) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.port = port
	return true
}

func (s *serialSubscription) released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *serialSubscription) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.port != nil {
		s.port.Close()
	}
}

// fixAssembler merges the NMEA sentence stream into complete readings.
// A reading is emitted on every acceptable GGA sentence, carrying the
// most recent speed, heading and VDOP seen before it.
type fixAssembler struct {
	highAccuracy bool
	speed        float64
	heading      float64
	vdop         float64
}

func (a *fixAssembler) consume(line string) (Reading, bool) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		// Non-NMEA chatter and unsupported sentences are skipped.
		return Reading{}, false
	}

	switch s := sentence.(type) {
	case nmea.RMC:
		if s.Validity == nmea.ValidRMC {
			a.speed = s.Speed * knotsToMetersPerSecond
			a.heading = s.Course
		}
	case nmea.GSA:
		a.vdop = s.VDOP
	case nmea.GGA:
		if s.FixQuality == nmea.Invalid {
			return Reading{}, false
		}
		if a.highAccuracy && s.HDOP > highAccuracyHDOP {
			return Reading{}, false
		}
		return Reading{
			Latitude:         s.Latitude,
			Longitude:        s.Longitude,
			Accuracy:         s.HDOP, // HDOP as a proxy for horizontal accuracy
			Altitude:         s.Altitude,
			AltitudeAccuracy: a.vdop,
			Heading:          a.heading,
			Speed:            a.speed,
			Timestamp:        time.Now(),
		}, true
	}
	return Reading{}, false
}
