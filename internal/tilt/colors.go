package tilt

import (
	"fmt"
	"strings"
)

type Color string

const (
	ColorRed     Color = "Red"
	ColorGreen   Color = "Green"
	ColorBlack   Color = "Black"
	ColorPurple  Color = "Purple"
	ColorOrange  Color = "Orange"
	ColorBlue    Color = "Blue"
	ColorYellow  Color = "Yellow"
	ColorPink    Color = "Pink"
	ColorUnknown Color = "unknown"
)

// Each Tilt broadcasts a fixed vendor UUID; only the fourth byte differs by color.
var devices = map[string]Color{
	"a495bb10c5b14b44b5121370f02d74de": ColorRed,
	"a495bb20c5b14b44b5121370f02d74de": ColorGreen,
	"a495bb30c5b14b44b5121370f02d74de": ColorBlack,
	"a495bb40c5b14b44b5121370f02d74de": ColorPurple,
	"a495bb50c5b14b44b5121370f02d74de": ColorOrange,
	"a495bb60c5b14b44b5121370f02d74de": ColorBlue,
	"a495bb70c5b14b44b5121370f02d74de": ColorYellow,
	"a495bb80c5b14b44b5121370f02d74de": ColorPink,
}

var identifierReplacer = strings.NewReplacer("-", "", ":", "", " ", "")

func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(identifierReplacer.Replace(strings.TrimSpace(identifier)))
}

// Lookup returns the color registered for a beacon UUID. Unregistered
// identifiers resolve to ColorUnknown along with ErrUnknownDevice so the
// caller can still publish the reading.
func Lookup(identifier string) (Color, error) {
	color, ok := devices[NormalizeIdentifier(identifier)]
	if !ok {
		return ColorUnknown, fmt.Errorf("%w: %q", ErrUnknownDevice, identifier)
	}
	return color, nil
}

func Colors() []Color {
	return []Color{
		ColorRed,
		ColorGreen,
		ColorBlack,
		ColorPurple,
		ColorOrange,
		ColorBlue,
		ColorYellow,
		ColorPink,
	}
}

func (c Color) String() string {
	return string(c)
}
