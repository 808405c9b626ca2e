package ecs

import (
	"github.com/phanxgames/mica"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EngineEventType is the Donburi event type for mica engine events.
// Subscribe to this in your ECS systems to receive object lifecycle, zoom
// change, and per-frame events.
var EngineEventType = events.NewEventType[mica.EngineEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Engine
// events are published to EngineEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) mica.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event mica.EngineEvent) {
	EngineEventType.Publish(s.world, event)
}
