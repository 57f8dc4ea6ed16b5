// Package sim drives the trail one frame at a time.
//
// A [Store] is the shared parameter store: UI handlers write to it at any
// time, and each frame reads one consistent [Snapshot] from it. The [Engine]
// turns a snapshot into a [FrameResult] without touching any shared state,
// and [Loop] ties the two together with a [Renderer]:
//
//	store := sim.NewStore(cfg)
//	engine, _ := sim.NewEngine(cfg.MaxPoints, sim.WithInitialPoint(cfg.GetInitialPoint()))
//	loop := sim.NewLoop(store, engine, renderer)
//	loop.Tick() // once per display frame
//
// # Thread Safety
//
// Store methods are safe for concurrent use. Engine and Loop must be driven
// from a single goroutine; the arrays handed to a Renderer are only valid
// until the next Tick.
package sim
