package tilt

import (
	"fmt"
	"math"

	"github.com/guregu/null"
)

// Reading is the raw, uncalibrated output of a Tilt. Values are kept at full
// precision; rounding happens only in Formatted.
type Reading struct {
	SpecificGravity float64
	Plato           float64
	TempCelsius     float64
	TempFahrenheit  float64
}

type Formatted struct {
	SpecificGravity string
	Plato           string
	TempCelsius     string
	TempFahrenheit  string
}

// Decode converts the iBeacon major (temperature in °F) and minor (specific
// gravity x1000) fields into a Reading.
func Decode(major, minor null.Int) (Reading, error) {
	if !major.Valid || !minor.Valid {
		return Reading{}, fmt.Errorf("%w: major present %t, minor present %t", ErrMalformedAdvertisement, major.Valid, minor.Valid)
	}
	fahrenheit := float64(major.Int64)
	sg := float64(minor.Int64) / 1000
	return Reading{
		SpecificGravity: sg,
		Plato:           Plato(sg),
		TempCelsius:     FahrenheitToCelsius(fahrenheit),
		TempFahrenheit:  fahrenheit,
	}, nil
}

func FahrenheitToCelsius(fahrenheit float64) float64 {
	return (fahrenheit - 32) * 5 / 9
}

func Plato(sg float64) float64 {
	return 135.997*math.Pow(sg, 3) - 630.272*math.Pow(sg, 2) + 1111.14*sg - 616.868
}

func (r Reading) Formatted() Formatted {
	return Formatted{
		SpecificGravity: fmt.Sprintf("%.3f", r.SpecificGravity),
		Plato:           fmt.Sprintf("%.2f", r.Plato),
		TempCelsius:     fmt.Sprintf("%.2f", r.TempCelsius),
		TempFahrenheit:  fmt.Sprintf("%.1f", r.TempFahrenheit),
	}
}
