package trail_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/trail"
)

var _ = Describe("ColorForAge", func() {
	g := trail.Gradient{
		Lighter: trail.RGB{R: 1, G: 1, B: 1},
		Mid:     trail.RGB{R: 0.5, G: 0.25, B: 0},
		Darker:  trail.RGB{R: 0.1, G: 0.2, B: 0.3},
	}

	It("starts at the lighter stop", func() {
		Expect(trail.ColorForAge(0, g)).To(Equal(g.Lighter))
	})

	It("is exactly mid at the lighter threshold", func() {
		Expect(trail.ColorForAge(trail.LighterDuration, g)).To(Equal(g.Mid))
	})

	It("is exactly darker at the mid threshold", func() {
		Expect(trail.ColorForAge(trail.MidDuration, g)).To(Equal(g.Darker))
	})

	It("holds darker for every older age", func() {
		for _, age := range []float64{10.5, 42, 1e9} {
			Expect(trail.ColorForAge(age, g)).To(Equal(g.Darker))
		}
	})

	It("interpolates each channel linearly", func() {
		c := trail.ColorForAge(1, g)
		Expect(c.R).To(BeNumerically("~", 0.75, 1e-12))
		Expect(c.G).To(BeNumerically("~", 0.625, 1e-12))
		Expect(c.B).To(BeNumerically("~", 0.5, 1e-12))

		c = trail.ColorForAge(6, g)
		Expect(c.R).To(BeNumerically("~", 0.3, 1e-12))
		Expect(c.G).To(BeNumerically("~", 0.225, 1e-12))
		Expect(c.B).To(BeNumerically("~", 0.15, 1e-12))
	})

	It("approaches each threshold continuously", func() {
		const eps = 1e-9
		below := trail.ColorForAge(trail.LighterDuration-eps, g)
		Expect(below.R).To(BeNumerically("~", g.Mid.R, 1e-6))
		below = trail.ColorForAge(trail.MidDuration-eps, g)
		Expect(below.B).To(BeNumerically("~", g.Darker.B, 1e-6))
	})
})

var _ = Describe("Palettes", func() {
	It("registers the six trail palettes", func() {
		Expect(trail.PaletteNames()).To(Equal([]string{"blue", "green", "orange", "pink", "red", "yellow"}))
	})

	It("parses the hex stops", func() {
		g, err := trail.Palette(trail.DefaultPalette)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Lighter.Hex()).To(Equal("#dbeafe"))
		Expect(g.Mid.Hex()).To(Equal("#51a2ff"))
		Expect(g.Darker.Hex()).To(Equal("#1447e6"))
	})

	It("rejects unknown palettes", func() {
		_, err := trail.Palette("purple")
		Expect(err).To(MatchError(dynamo.ErrUnknownPalette))
	})

	It("rejects malformed hex", func() {
		_, err := trail.ParseGradient("#fff", "#zzzzzz", "#000000")
		Expect(err).To(HaveOccurred())
	})
})
