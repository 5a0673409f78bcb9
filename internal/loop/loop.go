// Package loop runs the fixed-cadence sense/act/report cycle.
package loop

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rover-link/internal/infra/ina228"
	"rover-link/internal/link"
	"rover-link/internal/protocol/drivelink"
	"rover-link/internal/usecase"
)

// Link is the datagram boundary the loop drives.
type Link interface {
	Poll() ([]byte, bool)
	SendStatus([]byte) error
	LastSeen() time.Time
}

// Handler resolves commands and caches the last one for telemetry echo.
type Handler interface {
	HandleDatagram(payload []byte)
	LastCommand() (forward, steering float64)
	Halt()
}

// Sampler reads the power monitor.
type Sampler interface {
	Sample() ina228.Snapshot
}

// Dispatcher fans telemetry out to the fleet side.
type Dispatcher interface {
	Dispatch(usecase.TelemetryPayload)
}

// Loop ties the stages together. One tick, unconditionally in order: drain
// at most one inbound datagram, sample telemetry, emit exactly one status
// datagram, hand the record to the dispatcher. All mutable state is owned by
// the loop goroutine.
type Loop struct {
	link       Link
	handler    Handler
	sampler    Sampler
	dispatcher Dispatcher
	logger     *zap.Logger

	roverID  string
	period   time.Duration
	watchdog time.Duration
	halted   bool
}

type Options struct {
	RoverID  string
	RateHz   int
	Watchdog time.Duration // 0 disables the command-loss watchdog
}

func New(lnk Link, handler Handler, sampler Sampler, dispatcher Dispatcher, opts Options, logger *zap.Logger) *Loop {
	rate := opts.RateHz
	if rate <= 0 {
		rate = 20
	}
	return &Loop{
		link:       lnk,
		handler:    handler,
		sampler:    sampler,
		dispatcher: dispatcher,
		logger:     logger,
		roverID:    opts.RoverID,
		period:     time.Second / time.Duration(rate),
		watchdog:   opts.Watchdog,
	}
}

// Run ticks until ctx is cancelled, then halts the drivetrain. The ticker
// absorbs per-stage jitter so the cadence stays approximately constant.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("control loop running",
		zap.Duration("period", l.period),
		zap.Duration("watchdog", l.watchdog))

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.handler.Halt()
			l.logger.Info("control loop stopped")
			return nil
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
}

// Tick runs one full iteration. Exported for tests; Run is the only
// production caller.
func (l *Loop) Tick(now time.Time) {
	// 1. At most one command per tick; surplus datagrams stay buffered.
	if payload, ok := l.link.Poll(); ok {
		l.handler.HandleDatagram(payload)
		l.halted = false
	} else if l.watchdog > 0 && !l.halted {
		if last := l.link.LastSeen(); !last.IsZero() && now.Sub(last) > l.watchdog {
			l.logger.Warn("command link silent past watchdog, halting",
				zap.Duration("silent", now.Sub(last)))
			l.handler.Halt()
			l.halted = true
		}
	}

	// 2. Sample telemetry every tick, command or not.
	snap := l.sampler.Sample()

	// 3. Exactly one status datagram, echoing the cached command.
	forward, steering := l.handler.LastCommand()
	frame := drivelink.StatusFrame{
		Forward:   forward,
		Steering:  steering,
		PowerMW:   snap.PowerMW,
		CurrentMA: snap.CurrentMA,
		BusVoltsV: snap.BusVoltsV,
		ShuntMV:   snap.ShuntMV,
		EnergyJ:   snap.EnergyJ,
		ChargeC:   snap.ChargeC,
		DieTempC:  snap.DieTempC,
	}
	if err := l.link.SendStatus(drivelink.EncodeStatus(frame)); err != nil {
		if errors.Is(err, link.ErrNoPeer) {
			// Normal before the first commander datagram.
			l.logger.Debug("status not sent, no commander yet")
		} else {
			l.logger.Warn("status send failed", zap.Error(err))
		}
	}

	// 4. Fleet-side record.
	l.dispatcher.Dispatch(usecase.TelemetryPayload{
		RoverID:   l.roverID,
		Timestamp: now,
		Forward:   forward,
		Steering:  steering,
		PowerMW:   snap.PowerMW,
		CurrentMA: snap.CurrentMA,
		BusVoltsV: snap.BusVoltsV,
		ShuntMV:   snap.ShuntMV,
		EnergyJ:   snap.EnergyJ,
		ChargeC:   snap.ChargeC,
		DieTempC:  snap.DieTempC,
	})
}
