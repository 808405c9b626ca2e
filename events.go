package mica

// EventType identifies a kind of engine event.
type EventType uint8

const (
	EventObjectAdded   EventType = iota // fires after a successful CreateObject
	EventObjectUpdated                  // fires after a successful UpdateObject
	EventObjectRemoved                  // fires after a successful RemoveObject
	EventZoomChanged                    // fires after a successful SetZoom
	EventFrame                          // fires at the end of every Tick
)

// EngineEvent carries engine event data for host-side consumers.
type EngineEvent struct {
	Type EventType
	// ObjectID is set for the object events.
	ObjectID ObjectID
	// ZoomLevel and PreviousZoomLevel are set for EventZoomChanged.
	ZoomLevel         ZoomLevel
	PreviousZoomLevel ZoomLevel
	// VisibleCount is set for EventFrame.
	VisibleCount int
}

// EventSink receives engine events. The optional ECS bridge in mica/ecs
// implements it over a Donburi world.
type EventSink interface {
	EmitEvent(event EngineEvent)
}

// SetEventSink sets the optional event bridge. A nil sink disables emission.
func (e *Engine) SetEventSink(sink EventSink) {
	e.sink = sink
}

// emit publishes an event if a sink is registered.
func (e *Engine) emit(ev EngineEvent) {
	if e.sink != nil {
		e.sink.EmitEvent(ev)
	}
}
