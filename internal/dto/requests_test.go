package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestGeoInput_Point(t *testing.T) {
	t.Run("пара lng/lat", func(t *testing.T) {
		in := &GeoInput{Lng: f(77.5946), Lat: f(12.9716)}

		p, err := in.Point()
		require.NoError(t, err)
		assert.InDelta(t, 77.5946, p.Lng, 1e-9)
		assert.InDelta(t, 12.9716, p.Lat, 1e-9)
	})

	t.Run("массив coordinates", func(t *testing.T) {
		in := &GeoInput{Coordinates: []float64{77.5946, 12.9716}}

		p, err := in.Point()
		require.NoError(t, err)
		assert.InDelta(t, 77.5946, p.Lng, 1e-9)
		assert.InDelta(t, 12.9716, p.Lat, 1e-9)
	})

	t.Run("lng/lat приоритетнее coordinates", func(t *testing.T) {
		in := &GeoInput{Lng: f(1), Lat: f(2), Coordinates: []float64{3, 4}}

		p, err := in.Point()
		require.NoError(t, err)
		assert.InDelta(t, 1, p.Lng, 1e-9)
		assert.InDelta(t, 2, p.Lat, 1e-9)
	})

	t.Run("nil вход", func(t *testing.T) {
		var in *GeoInput

		p, err := in.Point()
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("пустой вход", func(t *testing.T) {
		_, err := (&GeoInput{}).Point()
		assert.Error(t, err)
	})

	t.Run("неполный массив", func(t *testing.T) {
		_, err := (&GeoInput{Coordinates: []float64{77.5946}}).Point()
		assert.Error(t, err)
	})

	t.Run("координаты вне диапазона", func(t *testing.T) {
		_, err := (&GeoInput{Lng: f(200), Lat: f(12.97)}).Point()
		assert.Error(t, err)

		_, err = (&GeoInput{Lng: f(77.59), Lat: f(-91)}).Point()
		assert.Error(t, err)
	})
}
