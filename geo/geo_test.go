package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embarkmaps/regiond/geo"
)

func TestValid(t *testing.T) {
	assert.True(t, geo.Point{Lat: 39.9, Lng: 116.4}.Valid())
	assert.True(t, geo.Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, geo.Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, geo.Point{Lat: 0, Lng: -181}.Valid())
	assert.False(t, geo.Point{Lat: math.NaN(), Lng: 0}.Valid())
	assert.False(t, geo.Point{Lat: math.Inf(1), Lng: 0}.Valid())
}

func TestDistance(t *testing.T) {
	a := geo.Point{Lat: 39.9042, Lng: 116.4074} // Beijing
	b := geo.Point{Lat: 31.2304, Lng: 121.4737} // Shanghai
	d := geo.Distance(a, b)
	assert.InDelta(t, 1_068_000, d, 10_000)
	assert.Equal(t, 0.0, geo.Distance(a, a))

	// One degree of latitude is ~111 km anywhere.
	d = geo.Distance(geo.Point{Lat: 40}, geo.Point{Lat: 41})
	assert.InDelta(t, 111_195, d, 100)
}

func TestPolylineLength(t *testing.T) {
	line := []geo.Point{
		{Lat: 40.0, Lng: 116.0},
		{Lat: 40.01, Lng: 116.0},
		{Lat: 40.02, Lng: 116.0},
	}
	total := geo.PolylineLength(line)
	assert.InDelta(t, 2*geo.Distance(line[0], line[1]), total, 1e-6)
	assert.Equal(t, 0.0, geo.PolylineLength(line[:1]))
	assert.Equal(t, 0.0, geo.PolylineLength(nil))
}
