package tilt

import "errors"

var (
	ErrUnknownDevice          = errors.New("unable to decode tilt color")
	ErrMalformedAdvertisement = errors.New("device does not look like a tilt hydrometer")
)
