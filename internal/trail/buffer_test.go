package trail_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

// nth returns the k-th written point (1-indexed); coordinates are exact in float32.
func nth(k int) physics.Point3D {
	return physics.Point3D{X: float64(k), Y: float64(-k), Z: float64(2 * k)}
}

func fill(b *trail.Buffer, n int) {
	for k := 1; k <= n; k++ {
		b.AddPoint(nth(k))
	}
}

// drawOrder walks the ranges the way a renderer would.
func drawOrder(b *trail.Buffer) []physics.Point3D {
	var out []physics.Point3D
	for _, r := range trail.ComputeRanges(b).List() {
		for slot := r.Start; slot < r.End(); slot++ {
			out = append(out, b.Point(slot))
		}
	}
	return out
}

var _ = Describe("Buffer", func() {
	Describe("New", func() {
		It("allocates zeroed arrays sized to the capacity", func() {
			b, err := trail.New(4)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Positions()).To(HaveLen(12))
			Expect(b.Colors()).To(HaveLen(12))
			Expect(b.Positions()).To(HaveEach(BeZero()))
			Expect(b.Head()).To(BeZero())
			Expect(b.TotalWritten()).To(BeZero())
		})

		DescribeTable("rejects non-positive capacities",
			func(capacity int) {
				b, err := trail.New(capacity)
				Expect(err).To(MatchError(dynamo.ErrInvalidCapacity))
				Expect(b).To(BeNil())
			},
			Entry("zero", 0),
			Entry("negative", -3),
		)
	})

	DescribeTable("keeps the count and head invariants for any write sequence",
		func(capacity, writes int) {
			b, err := trail.New(capacity)
			Expect(err).NotTo(HaveOccurred())
			for k := 1; k <= writes; k++ {
				b.AddPoint(nth(k))
				Expect(b.ValidCount()).To(BeNumerically("<=", capacity))
				Expect(b.ValidCount()).To(Equal(min(k, capacity)))
				Expect(b.Head()).To(Equal(k % capacity))
				Expect(b.IsFull()).To(Equal(k >= capacity))
			}
		},
		Entry("capacity 1", 1, 5),
		Entry("never fills", 10, 4),
		Entry("fills exactly", 5, 5),
		Entry("wraps several times", 7, 50),
	)

	DescribeTable("draws the written history oldest first",
		func(capacity, writes int) {
			b, err := trail.New(capacity)
			Expect(err).NotTo(HaveOccurred())
			fill(b, writes)

			var want []physics.Point3D
			for k := max(1, writes-capacity+1); k <= writes; k++ {
				want = append(want, nth(k))
			}
			Expect(drawOrder(b)).To(Equal(want))

			points, colors := b.Chronological()
			Expect(points).To(Equal(want))
			Expect(colors).To(HaveLen(len(want)))
		},
		Entry("partial", 10, 4),
		Entry("aligned", 5, 5),
		Entry("wrapped", 5, 7),
		Entry("wrapped many times", 3, 101),
	)

	It("handles the wraparound scenario", func() {
		b, _ := trail.New(5)
		fill(b, 7)

		Expect(b.Head()).To(Equal(2))
		Expect(b.TotalWritten()).To(Equal(7))
		Expect(b.ValidCount()).To(Equal(5))

		r := trail.ComputeRanges(b)
		Expect(r.First).To(Equal(trail.DrawRange{Start: 2, Count: 3}))
		Expect(r.Second).To(Equal(trail.DrawRange{Start: 0, Count: 2}))
		Expect(drawOrder(b)).To(Equal([]physics.Point3D{nth(3), nth(4), nth(5), nth(6), nth(7)}))
	})

	It("reports the newest point", func() {
		b, _ := trail.New(3)
		_, ok := b.Newest()
		Expect(ok).To(BeFalse())

		fill(b, 4)
		p, ok := b.Newest()
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(nth(4)))
	})

	Describe("Reset", func() {
		It("forgets points without wiping memory", func() {
			b, _ := trail.New(5)
			fill(b, 7)
			b.Reset()

			Expect(b.Head()).To(BeZero())
			Expect(b.TotalWritten()).To(BeZero())
			Expect(b.ValidCount()).To(BeZero())
			Expect(b.Positions()).To(ContainElement(BeNumerically(">", 0)))
			Expect(trail.ComputeRanges(b).Count()).To(BeZero())
			Expect(drawOrder(b)).To(BeEmpty())
		})

		It("is a no-op on an empty buffer", func() {
			b, _ := trail.New(5)
			b.Reset()
			b.Reset()
			Expect(b.Head()).To(BeZero())
			Expect(b.TotalWritten()).To(BeZero())
		})

		It("starts a fresh history afterwards", func() {
			b, _ := trail.New(4)
			fill(b, 6)
			b.Reset()
			b.AddPoint(nth(100))
			Expect(drawOrder(b)).To(Equal([]physics.Point3D{nth(100)}))
		})
	})

	Describe("Recolor", func() {
		var g trail.Gradient

		BeforeEach(func() {
			var err error
			g, err = trail.Palette("orange")
			Expect(err).NotTo(HaveOccurred())
		})

		rgb32 := func(c trail.RGB) trail.RGB {
			return trail.RGB{R: float64(float32(c.R)), G: float64(float32(c.G)), B: float64(float32(c.B))}
		}

		It("colors every valid slot by its age", func() {
			b, _ := trail.New(5)
			fill(b, 7)
			dt := 1.5
			b.Recolor(dt, g)

			points, colors := b.Chronological()
			Expect(points).To(HaveLen(5))
			for i := range colors {
				age := float64(len(colors)-1-i) * dt
				Expect(colors[i]).To(Equal(rgb32(g.ColorForAge(age))))
			}
		})

		It("shifts older colors when a new point arrives", func() {
			b, _ := trail.New(10)
			fill(b, 3)
			b.Recolor(1, g)
			newestSlot := 2
			Expect(b.Color(newestSlot)).To(Equal(rgb32(g.Lighter)))

			b.AddPoint(nth(4))
			b.Recolor(1, g)
			Expect(b.Color(newestSlot)).To(Equal(rgb32(g.ColorForAge(1))))
			Expect(b.Color(3)).To(Equal(rgb32(g.Lighter)))
		})

		It("leaves slots beyond the valid count untouched", func() {
			b, _ := trail.New(6)
			fill(b, 2)
			b.Recolor(0.01, g)
			Expect(b.Colors()[6:]).To(HaveEach(BeZero()))
		})
	})
})
