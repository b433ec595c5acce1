package geowatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidMAC(t *testing.T) {
	valid := []string{
		"00:14:22:01:23:45",
		"aa:bb:cc:dd:ee:ff",
		"AA:BB:CC:DD:EE:FF",
		// Bytes with the high bit set are common in real BSSIDs.
		"80:2a:a8:9f:ff:01",
		"f0:9f:c2:00:00:01",
	}
	for _, mac := range valid {
		assert.True(t, isValidMAC(mac), "expected %q to be valid", mac)
	}

	invalid := []string{
		"",
		"00:14:22:01:23",
		"00:14:22:01:23:45:67",
		"0:14:22:01:23:45",
		"zz:14:22:01:23:45",
		"00-14-22-01-23-45",
	}
	for _, mac := range invalid {
		assert.False(t, isValidMAC(mac), "expected %q to be invalid", mac)
	}
}
