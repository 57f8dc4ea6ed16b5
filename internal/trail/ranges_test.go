package trail_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenz3d/internal/trail"
)

var _ = Describe("ComputeRanges", func() {
	DescribeTable("splits the valid region",
		func(capacity, writes int, first, second trail.DrawRange) {
			b, err := trail.New(capacity)
			Expect(err).NotTo(HaveOccurred())
			fill(b, writes)

			r := trail.ComputeRanges(b)
			Expect(r.First).To(Equal(first))
			Expect(r.Second).To(Equal(second))
		},
		Entry("empty", 4, 0, trail.DrawRange{}, trail.DrawRange{}),
		Entry("not wrapped", 10, 4, trail.DrawRange{Start: 0, Count: 4}, trail.DrawRange{}),
		Entry("exactly aligned", 5, 5, trail.DrawRange{Start: 0, Count: 5}, trail.DrawRange{}),
		Entry("wrapped", 5, 7, trail.DrawRange{Start: 2, Count: 3}, trail.DrawRange{Start: 0, Count: 2}),
		Entry("aligned after wrapping", 5, 10, trail.DrawRange{Start: 0, Count: 5}, trail.DrawRange{}),
		Entry("head one before end", 5, 9, trail.DrawRange{Start: 4, Count: 1}, trail.DrawRange{Start: 0, Count: 4}),
	)

	It("covers exactly the valid slots without overlap", func() {
		for capacity := 1; capacity <= 8; capacity++ {
			b, _ := trail.New(capacity)
			for writes := 0; writes <= 3*capacity; writes++ {
				r := trail.ComputeRanges(b)
				Expect(r.Count()).To(Equal(b.ValidCount()))

				seen := map[int]bool{}
				for _, dr := range r.List() {
					Expect(dr.Start).To(BeNumerically(">=", 0))
					Expect(dr.End()).To(BeNumerically("<=", capacity))
					for slot := dr.Start; slot < dr.End(); slot++ {
						Expect(seen).NotTo(HaveKey(slot))
						seen[slot] = true
					}
				}
				Expect(seen).To(HaveLen(b.ValidCount()))

				b.AddPoint(nth(writes + 1))
			}
		}
	})

	It("lists only non-empty runs", func() {
		Expect(trail.Ranges{}.List()).To(BeEmpty())
		r := trail.Ranges{First: trail.DrawRange{Start: 3, Count: 2}, Second: trail.DrawRange{Start: 0, Count: 3}}
		Expect(r.List()).To(HaveLen(2))
		Expect(r.First.String()).To(Equal("[3,2]"))
	})
})
