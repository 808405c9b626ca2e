// Package ecs provides ECS adapters for mica's engine event system.
//
// The primary adapter is [NewDonburiSink], which bridges mica engine events
// (object added/updated/removed, zoom changed, frame) into a [Donburi] world
// as typed events. Subscribe to [EngineEventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
