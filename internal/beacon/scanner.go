package beacon

import (
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

const defaultQueueSize = 32

type Scanner interface {
	Advertisements() <-chan Advertisement
	SetScanning(enabled bool) error
}

// Adapter is the part of *bluetooth.Adapter the scanner needs.
type Adapter interface {
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

type scanner struct {
	adapter  Adapter
	events   chan Advertisement
	mux      sync.Mutex
	scanning bool
	done     chan struct{}
	now      func() time.Time
}

// NewScanner returns a Scanner that reports Tilt iBeacon sightings from the
// adapter. The adapter must already be enabled.
func NewScanner(adapter Adapter) Scanner {
	return &scanner{
		adapter: adapter,
		events:  make(chan Advertisement, defaultQueueSize),
		now:     time.Now,
	}
}

func (s *scanner) Advertisements() <-chan Advertisement {
	return s.events
}

func (s *scanner) SetScanning(enabled bool) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if enabled == s.scanning {
		return nil
	}
	if !enabled {
		// Stay in the scanning state until the scan goroutine has exited so a
		// failed stop can be retried instead of starting a second scan.
		if err := s.adapter.StopScan(); err != nil {
			return err
		}
		<-s.done
		s.scanning = false
		return nil
	}
	s.scanning = true
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		err := s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			s.handle(result.Address.String(), result.RSSI, result.ManufacturerData())
		})
		if err != nil {
			slog.Error("Bluetooth scan stopped with error", "error", err)
		}
	}(s.done)
	return nil
}

// handle runs on the bluetooth stack's goroutine and must never block it.
func (s *scanner) handle(address string, rssi int16, data []bluetooth.ManufacturerDataElement) {
	for _, element := range data {
		adv, err := ParseIBeacon(element.CompanyID, element.Data)
		if err != nil || !IsTilt(adv.UUID) {
			continue
		}
		adv.Address = address
		adv.RSSI = rssi
		adv.ReceivedAt = s.now()
		select {
		case s.events <- adv:
		default:
			slog.Warn("Advertisement queue full, dropping sighting", "address", address, "uuid", adv.UUID)
		}
	}
}
