package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMiles(t *testing.T) {
	// Rochester, NY to Buffalo, NY is roughly 67 miles.
	d := DistanceMiles(43.1566, -77.6088, 42.8864, -78.8784)
	assert.InDelta(t, 66.8, d, 1)

	assert.InDelta(t, 0, DistanceMiles(43.1, -77.6, 43.1, -77.6), 0.0001)
	assert.InDelta(t, DistanceMiles(1, 2, 3, 4), DistanceMiles(3, 4, 1, 2), 1e-9)
}
