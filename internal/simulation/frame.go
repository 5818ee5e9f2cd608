package simulation

import (
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages understood by the FlockActor:
//   - *durationpb.Duration: advance the flock by that elapsed time
//   - *emptypb.Empty: reply with the current frame as a *structpb.Struct, carrying an
//     "error" string when ticks failed since the previous snapshot

// NewTick builds the message that advances the flock by dt.
func NewTick(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// NewSnapshotRequest builds the message asking for the current frame.
func NewSnapshotRequest() *emptypb.Empty {
	return &emptypb.Empty{}
}

// FrameToProto converts the frame into the protobuf "Envelope" sent back to askers.
// Vectors travel as [x, y, z] lists, orientations as [x, y, z, w].
func FrameToProto(f flock.Frame) *structpb.Struct {
	agents := make([]*structpb.Value, len(f.Agents))
	for i, a := range f.Agents {
		agents[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":          structpb.NewNumberValue(float64(a.ID)),
			"position":    vectorToProto(a.Position),
			"velocity":    vectorToProto(a.Velocity),
			"orientation": numbers(a.Orientation.X, a.Orientation.Y, a.Orientation.Z, a.Orientation.W),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"tick":   structpb.NewNumberValue(float64(f.Tick)),
		"flock":  structpb.NewStringValue(f.Flock.String()),
		"agents": structpb.NewListValue(&structpb.ListValue{Values: agents}),
	}}
}

// FrameFromProto is the inverse of FrameToProto.
func FrameFromProto(s *structpb.Struct) (flock.Frame, error) {
	var f flock.Frame
	if s == nil {
		return f, fmt.Errorf("nil frame")
	}
	fields := s.GetFields()

	f.Tick = uint64(fields["tick"].GetNumberValue())
	if id := fields["flock"].GetStringValue(); id != "" {
		h, err := flock.ParseFlockHandle(id)
		if err != nil {
			return f, err
		}
		f.Flock = h
	}

	values := fields["agents"].GetListValue().GetValues()
	f.Agents = make([]flock.Agent, len(values))
	for i, v := range values {
		a := v.GetStructValue().GetFields()
		pos, err := vectorFromProto(a["position"])
		if err != nil {
			return f, fmt.Errorf("agent %d position: %w", i, err)
		}
		vel, err := vectorFromProto(a["velocity"])
		if err != nil {
			return f, fmt.Errorf("agent %d velocity: %w", i, err)
		}
		rot := a["orientation"].GetListValue().GetValues()
		if len(rot) != 4 {
			return f, fmt.Errorf("agent %d orientation: want 4 numbers, got %d", i, len(rot))
		}
		f.Agents[i] = flock.Agent{
			ID:       flock.AgentHandle(a["id"].GetNumberValue()),
			Position: pos,
			Velocity: vel,
			Orientation: geometry.Quaternion{
				X: rot[0].GetNumberValue(),
				Y: rot[1].GetNumberValue(),
				Z: rot[2].GetNumberValue(),
				W: rot[3].GetNumberValue(),
			},
		}
	}
	return f, nil
}

// MarshalFrameJSON renders a frame as one line of JSON, the export format of headless runs.
func MarshalFrameJSON(f flock.Frame) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: false}.Marshal(FrameToProto(f))
}

// UnmarshalFrameJSON parses a line written by MarshalFrameJSON.
func UnmarshalFrameJSON(b []byte) (flock.Frame, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(b, &s); err != nil {
		return flock.Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return FrameFromProto(&s)
}

func vectorToProto(v geometry.Vector3D) *structpb.Value {
	return numbers(v.X, v.Y, v.Z)
}

func vectorFromProto(v *structpb.Value) (geometry.Vector3D, error) {
	values := v.GetListValue().GetValues()
	if len(values) != 3 {
		return geometry.Vector3D{}, fmt.Errorf("want 3 numbers, got %d", len(values))
	}
	return geometry.Vector3D{
		X: values[0].GetNumberValue(),
		Y: values[1].GetNumberValue(),
		Z: values[2].GetNumberValue(),
	}, nil
}

func numbers(xs ...float64) *structpb.Value {
	values := make([]*structpb.Value, len(xs))
	for i, x := range xs {
		values[i] = structpb.NewNumberValue(x)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}
