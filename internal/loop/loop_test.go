package loop

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"rover-link/internal/infra/ina228"
	"rover-link/internal/link"
	"rover-link/internal/usecase"
	"rover-link/internal/usecase/teleop"
)

type fakeLink struct {
	inbox   [][]byte
	sent    []string
	sendErr error
	lastRx  time.Time
}

func (f *fakeLink) Poll() ([]byte, bool) {
	if len(f.inbox) == 0 {
		return nil, false
	}
	payload := f.inbox[0]
	f.inbox = f.inbox[1:]
	return payload, true
}

func (f *fakeLink) SendStatus(payload []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, string(payload))
	return nil
}

func (f *fakeLink) LastSeen() time.Time { return f.lastRx }

type fakeTrain struct {
	mixed [][3]float64
	raw   [][2]float64
	stops int
}

func (f *fakeTrain) Drive(forward, steering, winch float64) {
	f.mixed = append(f.mixed, [3]float64{forward, steering, winch})
}

func (f *fakeTrain) DriveWheels(rawLeft, rawRight float64) {
	f.raw = append(f.raw, [2]float64{rawLeft, rawRight})
}

func (f *fakeTrain) Stop() { f.stops++ }

type fakeSampler struct {
	snap ina228.Snapshot
}

func (f *fakeSampler) Sample() ina228.Snapshot { return f.snap }

type fakeDispatcher struct {
	records []usecase.TelemetryPayload
}

func (f *fakeDispatcher) Dispatch(p usecase.TelemetryPayload) {
	f.records = append(f.records, p)
}

func newTestLoop(lnk *fakeLink, watchdog time.Duration) (*Loop, *fakeTrain, *fakeDispatcher) {
	train := &fakeTrain{}
	disp := &fakeDispatcher{}
	handler := teleop.NewHandler(train, zap.NewNop())
	sampler := &fakeSampler{snap: ina228.Snapshot{BusVoltsV: 12.0, DieTempC: 25.0}}
	l := New(lnk, handler, sampler, disp, Options{
		RoverID:  "goat-test",
		RateHz:   20,
		Watchdog: watchdog,
	}, zap.NewNop())
	return l, train, disp
}

func TestTickWithoutCommandStillReports(t *testing.T) {
	lnk := &fakeLink{}
	l, train, disp := newTestLoop(lnk, 0)

	l.Tick(time.Now())

	if len(train.mixed)+len(train.raw) != 0 {
		t.Error("actuation happened with no inbound datagram")
	}
	if len(lnk.sent) != 1 {
		t.Fatalf("sent %d status datagrams, want exactly 1", len(lnk.sent))
	}
	if !strings.HasPrefix(lnk.sent[0], "0.0,0.0,") {
		t.Errorf("status %q does not echo the stationary default", lnk.sent[0])
	}
	if len(disp.records) != 1 {
		t.Fatalf("dispatched %d records, want 1", len(disp.records))
	}
	if disp.records[0].BusVoltsV != 12.0 {
		t.Errorf("record bus volts = %v, want 12.0", disp.records[0].BusVoltsV)
	}
}

func TestTickAppliesAtMostOneCommand(t *testing.T) {
	lnk := &fakeLink{inbox: [][]byte{
		[]byte("0,0,0,0,1"), // forward
		[]byte("0,0,0,0,3"), // backward, must wait for the next tick
	}}
	l, train, _ := newTestLoop(lnk, 0)

	l.Tick(time.Now())

	if len(train.mixed) != 1 {
		t.Fatalf("applied %d commands in one tick, want 1", len(train.mixed))
	}
	if train.mixed[0][0] != 1 {
		t.Errorf("applied forward = %v, want 1", train.mixed[0][0])
	}
	if len(lnk.inbox) != 1 {
		t.Errorf("%d datagrams left buffered, want 1", len(lnk.inbox))
	}

	l.Tick(time.Now())
	if len(train.mixed) != 2 || train.mixed[1][0] != -1 {
		t.Errorf("second tick did not apply the buffered backward command: %v", train.mixed)
	}
}

func TestStatusEchoesCachedCommandAcrossIdleTicks(t *testing.T) {
	lnk := &fakeLink{inbox: [][]byte{[]byte("0,0,0,0,1")}}
	l, _, _ := newTestLoop(lnk, 0)

	l.Tick(time.Now()) // applies forward
	l.Tick(time.Now()) // idle, must still echo forward=1

	if len(lnk.sent) != 2 {
		t.Fatalf("sent %d status datagrams, want 2", len(lnk.sent))
	}
	if !strings.HasPrefix(lnk.sent[1], "1.0,0.0,") {
		t.Errorf("idle tick status %q lost the cached command", lnk.sent[1])
	}
}

func TestNoPeerSendIsTolerated(t *testing.T) {
	lnk := &fakeLink{sendErr: link.ErrNoPeer}
	l, _, disp := newTestLoop(lnk, 0)

	l.Tick(time.Now()) // must not panic or skip dispatch

	if len(disp.records) != 1 {
		t.Errorf("dispatched %d records despite no peer, want 1", len(disp.records))
	}
}

func TestWatchdogHaltsAfterSilence(t *testing.T) {
	now := time.Now()
	lnk := &fakeLink{inbox: [][]byte{[]byte("0,0,0,0,1")}, lastRx: now}
	l, train, _ := newTestLoop(lnk, 100*time.Millisecond)

	l.Tick(now) // command applied
	if train.stops != 0 {
		t.Fatal("halted while the link was live")
	}

	l.Tick(now.Add(50 * time.Millisecond)) // inside the window
	if train.stops != 0 {
		t.Fatal("halted before the watchdog window elapsed")
	}

	l.Tick(now.Add(200 * time.Millisecond))
	if train.stops != 1 {
		t.Fatalf("stops = %d, want 1 after watchdog expiry", train.stops)
	}

	// Halt fires once, not every tick.
	l.Tick(now.Add(300 * time.Millisecond))
	if train.stops != 1 {
		t.Errorf("stops = %d, watchdog must not re-halt", train.stops)
	}

	// Status now echoes the reset cache.
	if last := lnk.sent[len(lnk.sent)-1]; !strings.HasPrefix(last, "0.0,0.0,") {
		t.Errorf("post-halt status %q does not echo stationary", last)
	}
}

func TestWatchdogInactiveBeforeFirstCommand(t *testing.T) {
	lnk := &fakeLink{} // LastSeen is zero
	l, train, _ := newTestLoop(lnk, 100*time.Millisecond)

	l.Tick(time.Now())
	l.Tick(time.Now().Add(time.Hour))

	if train.stops != 0 {
		t.Errorf("watchdog fired with no commander ever observed")
	}
}
