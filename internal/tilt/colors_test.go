package tilt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Lookup_Known(t *testing.T) {
	color, err := Lookup("a495bb10c5b14b44b5121370f02d74de")
	assert.NoError(t, err)
	assert.Equal(t, ColorRed, color)
}

func Test_Lookup_Hyphenated(t *testing.T) {
	color, err := Lookup("A495BB60-C5B1-4B44-B512-1370F02D74DE")
	assert.NoError(t, err)
	assert.Equal(t, ColorBlue, color)
}

func Test_Lookup_Unknown(t *testing.T) {
	color, err := Lookup("e2c56db5dffb48d2b060d0f5a71096e0")
	assert.Equal(t, ColorUnknown, color)
	assert.True(t, errors.Is(err, ErrUnknownDevice))
	assert.Equal(t, "unknown", color.String())
}

func Test_Lookup_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		color, err := Lookup("")
		assert.Equal(t, ColorUnknown, color)
		assert.Error(t, err)
	})
}

func Test_Colors_AllRegistered(t *testing.T) {
	colors := Colors()
	assert.Len(t, colors, 8)
	registered := make(map[Color]bool)
	for _, color := range devices {
		registered[color] = true
	}
	for _, color := range colors {
		assert.True(t, registered[color], "color %s has no identifier", color)
	}
}
