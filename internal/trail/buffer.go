package trail

import (
	"fmt"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
)

// Buffer is a fixed-capacity ring of points and their display colors.
// Slot i holds (x, y, z) at Positions[3i:3i+3] and its color at
// Colors[3i:3i+3].
type Buffer struct {
	positions []float32
	colors    []float32
	head      int
	total     int
	capacity  int
}

// New allocates a zeroed buffer. Capacity cannot change afterwards; build a
// new buffer instead.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", dynamo.ErrInvalidCapacity, capacity)
	}
	return &Buffer{
		positions: make([]float32, capacity*3),
		colors:    make([]float32, capacity*3),
		capacity:  capacity,
	}, nil
}

// AddPoint writes p at the head and advances it, overwriting the oldest
// point once the ring is full.
func (b *Buffer) AddPoint(p physics.Point3D) {
	i := b.head * 3
	b.positions[i] = float32(p.X)
	b.positions[i+1] = float32(p.Y)
	b.positions[i+2] = float32(p.Z)

	b.head = (b.head + 1) % b.capacity
	b.total++
}

// Recolor assigns every valid slot the gradient color for its age, where the
// newest point has age 0 and each older point is dt further back.
func (b *Buffer) Recolor(dt float64, g Gradient) {
	n := b.ValidCount()
	for j := 0; j < n; j++ {
		c := g.ColorForAge(float64(j) * dt)
		i := b.slotForAge(j) * 3
		b.colors[i] = float32(c.R)
		b.colors[i+1] = float32(c.G)
		b.colors[i+2] = float32(c.B)
	}
}

// slotForAge maps age index j (0 = newest) to a ring slot.
func (b *Buffer) slotForAge(j int) int {
	return (b.head - 1 - j + b.capacity) % b.capacity
}

func (b *Buffer) ValidCount() int {
	if b.total < b.capacity {
		return b.total
	}
	return b.capacity
}

func (b *Buffer) IsFull() bool { return b.total >= b.capacity }

// Reset forgets every point. Array memory is left as is.
func (b *Buffer) Reset() {
	b.head = 0
	b.total = 0
}

func (b *Buffer) Capacity() int     { return b.capacity }
func (b *Buffer) Head() int         { return b.head }
func (b *Buffer) TotalWritten() int { return b.total }

// Positions returns the backing position array. Callers must not modify it.
func (b *Buffer) Positions() []float32 { return b.positions }

// Colors returns the backing color array. Callers must not modify it.
func (b *Buffer) Colors() []float32 { return b.colors }

// Point returns the position stored in slot i.
func (b *Buffer) Point(slot int) physics.Point3D {
	i := slot * 3
	return physics.Point3D{
		X: float64(b.positions[i]),
		Y: float64(b.positions[i+1]),
		Z: float64(b.positions[i+2]),
	}
}

// Color returns the color stored in slot i.
func (b *Buffer) Color(slot int) RGB {
	i := slot * 3
	return RGB{R: float64(b.colors[i]), G: float64(b.colors[i+1]), B: float64(b.colors[i+2])}
}

// Newest returns the most recently written point, or false when empty.
func (b *Buffer) Newest() (physics.Point3D, bool) {
	if b.total == 0 {
		return physics.Point3D{}, false
	}
	return b.Point(b.slotForAge(0)), true
}

// Chronological copies the valid points and their colors oldest first into
// contiguous slices, for consumers that cannot draw split ranges.
func (b *Buffer) Chronological() ([]physics.Point3D, []RGB) {
	n := b.ValidCount()
	points := make([]physics.Point3D, 0, n)
	colors := make([]RGB, 0, n)
	for _, r := range ComputeRanges(b).List() {
		for slot := r.Start; slot < r.End(); slot++ {
			points = append(points, b.Point(slot))
			colors = append(colors, b.Color(slot))
		}
	}
	return points, colors
}
