// Package trail stores the most recent points of a trajectory in a
// fixed-capacity ring and prepares them for drawing.
//
// A [Buffer] keeps flat position and color arrays laid out the way vertex
// buffers expect (three float32 per slot). Colors are derived from each
// point's age through a three-stop [Gradient]. [ComputeRanges] describes the
// valid slots as at most two contiguous runs that, drawn in order, visit the
// points oldest first even after the ring has wrapped.
//
// Nothing in this package inspects array contents to decide validity: after
// [Buffer.Reset] stale values remain in memory but are never reported.
package trail
