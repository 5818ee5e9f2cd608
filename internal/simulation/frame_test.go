package simulation

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"google.golang.org/protobuf/types/known/structpb"
)

func sampleFrame() flock.Frame {
	return flock.Frame{
		Tick:  42,
		Flock: flock.FlockHandle(uuid.MustParse("6f1c2a52-3b43-4c8e-9a57-2e0d6d1b7a10")),
		Agents: []flock.Agent{
			{
				ID:          0,
				Position:    geometry.NewVector3D(1, 2, 3),
				Velocity:    geometry.NewVector3D(0, 0, 5),
				Orientation: geometry.Identity,
			},
			{
				ID:          1,
				Position:    geometry.NewVector3D(-4.5, 0.25, 9),
				Velocity:    geometry.NewVector3D(3, 0, 0),
				Orientation: geometry.Quaternion{X: 0, Y: 0.7071067811865476, Z: 0, W: 0.7071067811865476},
			},
		},
	}
}

func equalFrames(t *testing.T, got, want flock.Frame) {
	t.Helper()
	if got.Tick != want.Tick || got.Flock != want.Flock {
		t.Fatalf("header = (%d, %s), want (%d, %s)", got.Tick, got.Flock, want.Tick, want.Flock)
	}
	if len(got.Agents) != len(want.Agents) {
		t.Fatalf("got %d agents, want %d", len(got.Agents), len(want.Agents))
	}
	for i := range want.Agents {
		if got.Agents[i] != want.Agents[i] {
			t.Errorf("agent %d = %+v, want %+v", i, got.Agents[i], want.Agents[i])
		}
	}
}

func TestFrameProto(t *testing.T) {
	want := sampleFrame()
	got, err := FrameFromProto(FrameToProto(want))
	if err != nil {
		t.Fatalf("FrameFromProto() error = %v", err)
	}
	equalFrames(t, got, want)
}

func TestFrameJSON(t *testing.T) {
	want := sampleFrame()
	b, err := MarshalFrameJSON(want)
	if err != nil {
		t.Fatalf("MarshalFrameJSON() error = %v", err)
	}
	if bytes.ContainsRune(b, '\n') {
		t.Errorf("exported frame spans several lines: %s", b)
	}
	got, err := UnmarshalFrameJSON(b)
	if err != nil {
		t.Fatalf("UnmarshalFrameJSON() error = %v", err)
	}
	equalFrames(t, got, want)
}

func TestFrameFromProto_Invalid(t *testing.T) {
	if _, err := FrameFromProto(nil); err == nil {
		t.Error("nil struct accepted")
	}

	bad, err := structpb.NewStruct(map[string]any{
		"tick":   1,
		"agents": []any{map[string]any{"position": []any{1, 2}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FrameFromProto(bad); err == nil {
		t.Error("short position accepted")
	}

	badFlock, _ := structpb.NewStruct(map[string]any{"flock": "not-a-uuid"})
	if _, err := FrameFromProto(badFlock); err == nil {
		t.Error("malformed flock handle accepted")
	}
}

func TestFrameFromProto_Empty(t *testing.T) {
	f, err := FrameFromProto(&structpb.Struct{})
	if err != nil {
		t.Fatalf("empty struct: %v", err)
	}
	if f.Tick != 0 || len(f.Agents) != 0 {
		t.Errorf("unexpected frame %+v", f)
	}
}
