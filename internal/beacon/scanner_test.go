package beacon

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"tinygo.org/x/bluetooth"
)

type fakeAdapter struct {
	mux     sync.Mutex
	scans   int
	stops   int
	stopErr error
	stopped chan struct{}
}

func (a *fakeAdapter) Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	a.mux.Lock()
	a.scans++
	stopped := make(chan struct{})
	a.stopped = stopped
	a.mux.Unlock()
	<-stopped
	return nil
}

func (a *fakeAdapter) StopScan() error {
	a.mux.Lock()
	defer a.mux.Unlock()
	a.stops++
	if a.stopErr != nil {
		return a.stopErr
	}
	if a.stopped != nil {
		close(a.stopped)
		a.stopped = nil
	}
	return nil
}

func (a *fakeAdapter) counts() (int, int) {
	a.mux.Lock()
	defer a.mux.Unlock()
	return a.scans, a.stops
}

type ScannerTest struct {
	suite.Suite
	adapter *fakeAdapter
	scanner *scanner
	now     time.Time
}

func (s *ScannerTest) SetupTest() {
	s.adapter = &fakeAdapter{}
	s.scanner = NewScanner(s.adapter).(*scanner)
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.scanner.now = func() time.Time { return s.now }
}

func (s *ScannerTest) Test_handle_TiltSighting() {
	s.scanner.handle("AA:BB:CC:DD:EE:FF", -70, []bluetooth.ManufacturerDataElement{
		{CompanyID: appleCompanyID, Data: tiltFrame(0x70, 64, 1048)},
	})
	s.Require().Len(s.scanner.events, 1)
	adv := <-s.scanner.Advertisements()
	s.Equal("AA:BB:CC:DD:EE:FF", adv.Address)
	s.Equal(int16(-70), adv.RSSI)
	s.Equal("a495bb70-c5b1-4b44-b512-1370f02d74de", adv.UUID)
	s.Equal(s.now, adv.ReceivedAt)
}

func (s *ScannerTest) Test_handle_IgnoresOtherBeacons() {
	other := tiltFrame(0x10, 68, 1015)
	other[2] = 0xe2
	s.scanner.handle("11:22:33:44:55:66", -40, []bluetooth.ManufacturerDataElement{
		{CompanyID: appleCompanyID, Data: other},
		{CompanyID: 0x028d, Data: []byte{0x2f, 0x01}},
	})
	s.Empty(s.scanner.events)
}

func (s *ScannerTest) Test_handle_DropsWhenFull() {
	element := []bluetooth.ManufacturerDataElement{{CompanyID: appleCompanyID, Data: tiltFrame(0x10, 68, 1015)}}
	for i := 0; i < defaultQueueSize+5; i++ {
		s.scanner.handle("AA:BB:CC:DD:EE:FF", -70, element)
	}
	s.Len(s.scanner.events, defaultQueueSize)
}

func (s *ScannerTest) Test_SetScanning_Toggle() {
	s.Require().NoError(s.scanner.SetScanning(true))
	s.Require().NoError(s.scanner.SetScanning(true))
	s.Eventually(func() bool {
		scans, _ := s.adapter.counts()
		return scans == 1
	}, time.Second, 5*time.Millisecond)
	s.Require().NoError(s.scanner.SetScanning(false))
	s.Require().NoError(s.scanner.SetScanning(false))
	scans, stops := s.adapter.counts()
	s.Equal(1, scans)
	s.Equal(1, stops)
}

func (s *ScannerTest) Test_SetScanning_FailedStopKeepsSingleScan() {
	s.Require().NoError(s.scanner.SetScanning(true))
	s.Eventually(func() bool {
		scans, _ := s.adapter.counts()
		return scans == 1
	}, time.Second, 5*time.Millisecond)

	s.adapter.mux.Lock()
	s.adapter.stopErr = errors.New("hci busy")
	s.adapter.mux.Unlock()
	s.Error(s.scanner.SetScanning(false))

	s.Require().NoError(s.scanner.SetScanning(true))
	scans, _ := s.adapter.counts()
	s.Equal(1, scans)

	s.adapter.mux.Lock()
	s.adapter.stopErr = nil
	s.adapter.mux.Unlock()
	s.Require().NoError(s.scanner.SetScanning(false))
	scans, stops := s.adapter.counts()
	s.Equal(1, scans)
	s.Equal(2, stops)
}

func TestScanner(t *testing.T) {
	suite.Run(t, new(ScannerTest))
}
