package simulation

import (
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const errorField = "error"

// FlockActor hosts one flock. It owns the authoritative state, runs the spawn and
// flocking steps on every tick and serves snapshots to the renderers.
type FlockActor struct {
	cfg *Config
	sim *flock.Simulation
	// Communication with UI
	snapshotCh chan<- flock.Frame
	lastFrame  flock.Frame
	// first failure since the last snapshot, reported to the next asker
	tickErr     error
	failedTicks int
	// --- Benchmark Stats ---
	tickCount   int
	lastLogTime time.Time
}

var _ actor.Actor = (*FlockActor)(nil)

// NewFlockActor creates the flock logic unit. Frames are pushed on snapshotCh after
// every tick, skipped when the consumer is busy. snapshotCh may be nil.
func NewFlockActor(cfg *Config, snapshotCh chan<- flock.Frame) *FlockActor {
	return &FlockActor{
		cfg:         cfg,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (f *FlockActor) PreStart(ctx *actor.Context) error {
	logger := ctx.ActorSystem().Logger()

	reg := flock.NewRegistry()
	h, err := reg.CreateFlock(f.cfg.Parameters(), f.cfg.SpawnSettings())
	if err != nil {
		return err
	}
	f.sim, err = flock.NewSimulation(reg, h, f.cfg.Rand(),
		flock.WithSimulationWorkers(f.cfg.Workers),
		flock.WithSimulationLogger(logger))
	if err != nil {
		return err
	}
	f.lastFrame = flock.Frame{Flock: h}
	logger.Infof("Flock %s created, target population %d", h, f.cfg.TargetCount)
	return nil
}

func (f *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Info("Flock started, waiting for ticks...")

	// The main simulation step, driven by the host loop
	case *durationpb.Duration:
		f.logBenchmarks(ctx)

		frame, err := f.sim.Tick(msg.AsDuration().Seconds())
		if err != nil {
			ctx.Logger().Errorf("tick %d failed: %v", f.lastFrame.Tick+1, err)
			if f.tickErr == nil {
				f.tickErr = fmt.Errorf("tick %d: %w", f.lastFrame.Tick+1, err)
			}
			f.failedTicks++
			return
		}
		f.lastFrame = frame
		f.tickCount++
		f.pushSnapshot()

	case *emptypb.Empty:
		reply := FrameToProto(f.lastFrame)
		if f.tickErr != nil {
			reply.Fields[errorField] = structpb.NewStringValue(
				fmt.Sprintf("%d failed ticks, first: %v", f.failedTicks, f.tickErr))
			f.tickErr, f.failedTicks = nil, 0
		}
		ctx.Response(reply)

	default:
		ctx.Unhandled()
	}
}

func (f *FlockActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Flock is shutdown after %d ticks...", f.lastFrame.Tick)
	return nil
}

func (f *FlockActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(f.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Agents: %d", f.tickCount, len(f.lastFrame.Agents))
		f.tickCount = 0
		f.lastLogTime = time.Now()
	}
}

func (f *FlockActor) pushSnapshot() {
	if f.snapshotCh == nil {
		return
	}
	select {
	case f.snapshotCh <- f.lastFrame:
	default:
		// UI busy, skip frame
	}
}
