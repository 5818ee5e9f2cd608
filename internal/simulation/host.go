package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrTickFailed is returned by Snapshot when the flock rejected ticks since the
// previous snapshot. The flock keeps the state of its last good tick.
var ErrTickFailed = errors.New("flock tick failed")

// Host runs the actor system holding one FlockActor. Renderers talk to the flock
// only through it.
type Host struct {
	System actor.ActorSystem
	PID    *actor.PID
	// Frames receives the frame produced by every tick, when the reader keeps up.
	Frames <-chan flock.Frame
	cfg    *Config
}

// StartHost starts an actor system and spawns the flock described by cfg.
func StartHost(ctx context.Context, cfg *Config, logger log.Logger) (*Host, error) {
	system, err := actor.NewActorSystem("FlockSystem",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("start actor system: %w", err)
	}

	frames := make(chan flock.Frame, 10) // Buffer to avoid blocking
	pid, err := system.Spawn(ctx, "flock", NewFlockActor(cfg, frames))
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("spawn flock: %w", err)
	}
	return &Host{
		System: system,
		PID:    pid,
		Frames: frames,
		cfg:    cfg,
	}, nil
}

// Config returns the configuration the flock was created with.
func (h *Host) Config() *Config { return h.cfg }

// Tick asks the flock to advance by dt, without waiting for it.
func (h *Host) Tick(ctx context.Context, dt time.Duration) error {
	return actor.Tell(ctx, h.PID, NewTick(dt))
}

// Snapshot waits for the frame of the last processed tick. Ticks sent before are
// processed first, the mailbox being ordered. Failed ticks since the previous
// snapshot are reported once as ErrTickFailed.
func (h *Host) Snapshot(ctx context.Context, timeout time.Duration) (flock.Frame, error) {
	reply, err := actor.Ask(ctx, h.PID, NewSnapshotRequest(), timeout)
	if err != nil {
		return flock.Frame{}, fmt.Errorf("snapshot: %w", err)
	}
	s, ok := reply.(*structpb.Struct)
	if !ok {
		return flock.Frame{}, fmt.Errorf("snapshot: unexpected reply %T", reply)
	}
	if v, ok := s.GetFields()[errorField]; ok {
		return flock.Frame{}, fmt.Errorf("%w: %s", ErrTickFailed, v.GetStringValue())
	}
	return FrameFromProto(s)
}

// Stop shuts the actor system down.
func (h *Host) Stop(ctx context.Context) error {
	return h.System.Stop(ctx)
}
