package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/jgulick48/tilt2mqtt/internal/tilt"
)

const (
	topicPrefix = "tilt"
	// exactly once
	publishQoS    byte = 2
	publishRetain      = true
)

// Payload is the wire format subscribers already depend on, including the
// "farenheit" spelling.
type Payload struct {
	SpecificGravity string `json:"specific_gravity_uncali"`
	Plato           string `json:"plato_uncali"`
	TempCelsius     string `json:"temperature_celsius_uncali"`
	TempFahrenheit  string `json:"temperature_farenheit_uncali"`
}

type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

func Topic(color tilt.Color) string {
	return fmt.Sprintf("%s/%s", topicPrefix, color)
}

func NewPayload(reading tilt.Reading) Payload {
	formatted := reading.Formatted()
	return Payload{
		SpecificGravity: formatted.SpecificGravity,
		Plato:           formatted.Plato,
		TempCelsius:     formatted.TempCelsius,
		TempFahrenheit:  formatted.TempFahrenheit,
	}
}

func NewMessage(color tilt.Color, reading tilt.Reading) (Message, error) {
	payload, err := json.Marshal(NewPayload(reading))
	if err != nil {
		return Message{}, err
	}
	return Message{
		Topic:   Topic(color),
		Payload: payload,
		QoS:     publishQoS,
		Retain:  publishRetain,
	}, nil
}
