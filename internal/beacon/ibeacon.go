package beacon

import (
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null"
)

const (
	appleCompanyID   uint16 = 0x004c
	iBeaconType      byte   = 0x02
	iBeaconLength    byte   = 0x15
	iBeaconMinLength        = 22

	tiltPrefix = "a495bb"
	tiltSuffix = "c5b14b44b5121370f02d74de"
)

var ErrNotIBeacon = errors.New("manufacturer data is not an iBeacon frame")

// Advertisement is a single beacon sighting. Major and Minor are invalid when
// the frame did not carry them.
type Advertisement struct {
	Address    string
	RSSI       int16
	UUID       string
	Major      null.Int
	Minor      null.Int
	TxPower    null.Int
	Raw        []byte
	ReceivedAt time.Time
}

// ParseIBeacon decodes Apple manufacturer data laid out as
// 0x02 0x15 | uuid[16] | major[2] | minor[2] | tx power[1].
func ParseIBeacon(companyID uint16, data []byte) (Advertisement, error) {
	if companyID != appleCompanyID || len(data) < 18 || data[0] != iBeaconType || data[1] != iBeaconLength {
		return Advertisement{}, ErrNotIBeacon
	}
	id, err := uuid.FromBytes(data[2:18])
	if err != nil {
		return Advertisement{}, err
	}
	adv := Advertisement{
		UUID: id.String(),
		Raw:  append([]byte(nil), data...),
	}
	if len(data) >= 20 {
		adv.Major = null.IntFrom(int64(binary.BigEndian.Uint16(data[18:20])))
	}
	if len(data) >= iBeaconMinLength {
		adv.Minor = null.IntFrom(int64(binary.BigEndian.Uint16(data[20:22])))
	}
	if len(data) > iBeaconMinLength {
		adv.TxPower = null.IntFrom(int64(int8(data[22])))
	}
	return adv, nil
}

// IsTilt reports whether the beacon UUID belongs to the Tilt family.
func IsTilt(id string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(id, "-", ""))
	return strings.HasPrefix(normalized, tiltPrefix) && strings.HasSuffix(normalized, tiltSuffix)
}
