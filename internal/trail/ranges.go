package trail

import "fmt"

// DrawRange is a contiguous run of ring slots.
type DrawRange struct {
	Start, Count int
}

func (r DrawRange) End() int       { return r.Start + r.Count }
func (r DrawRange) Empty() bool    { return r.Count == 0 }
func (r DrawRange) String() string { return fmt.Sprintf("[%d,%d]", r.Start, r.Count) }

// Ranges is the pair of runs covering the valid slots. First holds the older
// points, Second continues up to the newest.
type Ranges struct {
	First, Second DrawRange
}

// List returns the non-empty runs in drawing order.
func (r Ranges) List() []DrawRange {
	out := make([]DrawRange, 0, 2)
	for _, dr := range []DrawRange{r.First, r.Second} {
		if !dr.Empty() {
			out = append(out, dr)
		}
	}
	return out
}

// Count is the total number of slots covered.
func (r Ranges) Count() int { return r.First.Count + r.Second.Count }

// ComputeRanges splits the valid region of b into at most two contiguous
// runs. It depends only on head, total written and capacity.
func ComputeRanges(b *Buffer) Ranges {
	switch {
	case !b.IsFull():
		return Ranges{First: DrawRange{0, b.ValidCount()}}
	case b.head == 0:
		return Ranges{First: DrawRange{0, b.capacity}}
	default:
		return Ranges{
			First:  DrawRange{b.head, b.capacity - b.head},
			Second: DrawRange{0, b.head},
		}
	}
}
