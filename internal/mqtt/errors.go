package mqtt

import "errors"

var (
	ErrPublishFailed = errors.New("mqtt publish failed")
	ErrNotConnected  = errors.New("not connected to mqtt broker")
)
