package geowatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

const (
	// defaultPollInterval spaces out geolocation requests for a standing
	// watch when no interval is configured.
	defaultPollInterval = 30 * time.Second

	// defaultRequestTimeout bounds a single geolocation API call when the
	// caller did not supply a timeout.
	defaultRequestTimeout = 10 * time.Second
)

// GoogleSource resolves the device position through the Google Maps
// Geolocation API, using nearby WiFi access points when they can be
// scanned and falling back to IP-based lookup otherwise. A standing
// watch polls the API at a fixed interval.
type GoogleSource struct {
	client       *maps.Client
	pollInterval time.Duration
	logger       zerolog.Logger

	mu          sync.Mutex
	lastReading Reading
	haveReading bool
}

// NewGoogleSource creates a GoogleSource with the given API key. A
// non-positive pollInterval falls back to the default.
func NewGoogleSource(apiKey string, pollInterval time.Duration, logger zerolog.Logger) (*GoogleSource, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &GoogleSource{
		client:       c,
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

// Current delivers a single fix, serving a cached result younger than
// MaximumAge without a network round trip.
func (g *GoogleSource) Current(opts Options, success func(Reading), failure func(error)) {
	if cached, ok := g.cached(opts.MaximumAge); ok {
		go success(cached)
		return
	}

	go func() {
		reading, err := g.geolocate(opts)
		if err != nil {
			failure(err)
			return
		}
		success(reading)
	}()
}

// Watch polls the geolocation API until the subscription is released.
// Every poll reports either a reading or a failure; the subscription
// stays alive across failed polls.
func (g *GoogleSource) Watch(opts Options, success func(Reading), failure func(error)) Subscription {
	sub := &pollSubscription{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(g.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-sub.stop:
				return
			case <-ticker.C:
			}

			reading, err := g.geolocate(opts)
			if sub.released() {
				return
			}
			if err != nil {
				failure(err)
				continue
			}
			success(reading)
		}
	}()

	return sub
}

// geolocate performs one Geolocation API request.
func (g *GoogleSource) geolocate(opts Options) (Reading, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req := &maps.GeolocationRequest{ConsiderIP: true}
	if wifiAPs, err := getWiFiAccessPoints(ctx); err != nil {
		g.logger.Debug().Err(err).Msg("WiFi scan unavailable, using IP-based lookup")
	} else {
		req.WiFiAccessPoints = wifiAPs
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Reading{}, err
	}

	// Altitude, heading and speed are not part of the Geolocation API
	// response and stay zero.
	reading := Reading{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
		Timestamp: time.Now(),
	}
	g.remember(reading)
	return reading, nil
}

func (g *GoogleSource) cached(maxAge time.Duration) (Reading, bool) {
	if maxAge <= 0 {
		return Reading{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.haveReading || time.Since(g.lastReading.Timestamp) > maxAge {
		return Reading{}, false
	}
	return g.lastReading, true
}

func (g *GoogleSource) remember(reading Reading) {
	g.mu.Lock()
	g.lastReading = reading
	g.haveReading = true
	g.mu.Unlock()
}

// pollSubscription stops the polling goroutine when released.
type pollSubscription struct {
	mu     sync.Mutex
	stop   chan struct{}
	closed bool
}

func (p *pollSubscription) released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *pollSubscription) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.stop)
}
