package growth_test

import (
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/san-kum/artgrow/internal/lsystem"
	"github.com/san-kum/artgrow/internal/scene"
	"github.com/san-kum/artgrow/internal/turtle"
)

const tol = 1e-9

// plain builds a one-generation-free grammar that interprets axiom verbatim.
func plain(name, axiom string) lsystem.Spec {
	return lsystem.Spec{Name: name, Axiom: axiom, Angle: math.Pi / 2, Step: 1, Speed: 1}
}

func registry(specs ...lsystem.Spec) *lsystem.Registry {
	r, err := lsystem.RegisterSpecs(lsystem.NewRegistry(), specs)
	Expect(err).NotTo(HaveOccurred())
	r.Freeze()
	return r
}

func grow(it *growth.Interpreter, grammar string) {
	Expect(it.Trigger()).To(BeTrue())
	Expect(it.Release(geom.Vec3{}, geom.IdentityQuat(), 1, grammar)).To(Succeed())
}

var _ = Describe("Interpreter", func() {
	var sink *recordingSink

	BeforeEach(func() {
		sink = newRecordingSink()
	})

	Describe("construction", func() {
		It("requires a registry and a sink", func() {
			_, err := growth.New(nil, sink)
			Expect(err).To(MatchError(growth.ErrNoRegistry))
			_, err = growth.New(lsystem.Builtin(), nil)
			Expect(err).To(MatchError(growth.ErrNoSink))
		})

		It("selects simpleTree by default", func() {
			it, err := growth.New(lsystem.Builtin(), sink, growth.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(it.Selected()).To(Equal(lsystem.DefaultGrammar))
			Expect(it.Derivation()).NotTo(BeNil())
			Expect(it.MaxInstances()).To(Equal(growth.DefaultMaxInstances))
		})

		It("falls back to the first registered name", func() {
			it, err := growth.New(registry(plain("b", "F"), plain("a", "F")), sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(it.Selected()).To(Equal("a"))
		})

		It("rejects bad options", func() {
			_, err := growth.New(lsystem.Builtin(), sink, growth.WithMaxInstances(0))
			Expect(err).To(MatchError(growth.ErrInvalidOption))
			_, err = growth.New(lsystem.Builtin(), sink, growth.WithTimeScale(-1))
			Expect(err).To(MatchError(growth.ErrInvalidOption))
			_, err = growth.New(lsystem.Builtin(), sink, growth.WithSelection("nope"))
			Expect(err).To(MatchError(lsystem.ErrUnknownGrammar))
		})
	})

	Describe("a single forward step", func() {
		It("moves one step along the initial heading and records one sample", func() {
			it, err := growth.New(registry(plain("line", "FF")), sink)
			Expect(err).NotTo(HaveOccurred())
			grow(it, "line")

			Expect(it.Tick(0.01)).To(Succeed())

			infos := it.Instances()
			Expect(infos).To(HaveLen(1))
			Expect(infos[0].State).To(Equal(growth.Active))
			Expect(infos[0].Cursor).To(Equal(1))
			Expect(infos[0].Position.ApproxEqual(geom.V3(0, 1, 0), tol)).To(BeTrue())
			Expect(infos[0].Segments).To(Equal(1))
			Expect(infos[0].Samples).To(Equal(1))
			Expect(sink.ops()).To(Equal([]string{"open", "append"}))
			Expect(sink.events[1].pos).To(Equal(geom.Vec3{}))
		})

		It("retires after the last symbol and closes its segment", func() {
			it, _ := growth.New(registry(plain("line", "F")), sink)
			grow(it, "line")

			Expect(it.Tick(0.01)).To(Succeed())
			Expect(it.Len()).To(Equal(0))
			Expect(sink.ops()).To(Equal([]string{"open", "append", "close"}))
		})
	})

	Describe("the turtle alphabet", func() {
		DescribeTable("moves the turtle after a first step",
			func(body string, pos, heading geom.Vec3, flushes bool) {
				it, _ := growth.New(registry(plain("alpha", "F"+body+"X")), sink)
				grow(it, "alpha")

				n := 1 + len([]rune(body))
				Expect(it.Tick(float64(n) / 100)).To(Succeed())
				info := it.Instances()[0]
				Expect(info.Cursor).To(Equal(n))
				Expect(info.Position.ApproxEqual(pos, tol)).To(BeTrue(), "position %v", info.Position)
				Expect(info.Heading.ApproxEqual(heading, tol)).To(BeTrue(), "heading %v", info.Heading)

				Expect(it.Tick(1)).To(Succeed())
				Expect(it.Len()).To(Equal(0))
				if flushes {
					Expect(sink.samples[1]).To(HaveLen(2))
					Expect(sink.samples[1][1].ApproxEqual(geom.V3(0, 1, 0), tol)).To(BeTrue())
				} else {
					Expect(sink.samples[1]).To(HaveLen(1))
				}
			},
			Entry("+ turns left", "+", geom.V3(0, 1, 0), geom.V3(1, 0, 0), true),
			Entry("- turns right", "-", geom.V3(0, 1, 0), geom.V3(-1, 0, 0), true),
			Entry("& pitches down", "&", geom.V3(0, 1, 0), geom.V3(0, 0, 1), true),
			Entry("^ pitches up", "^", geom.V3(0, 1, 0), geom.V3(0, 0, -1), true),
			Entry("| turns around", "|", geom.V3(0, 1, 0), geom.V3(0, -1, 0), true),
			Entry("\\ rolls left", "\\&", geom.V3(0, 1, 0), geom.V3(1, 0, 0), true),
			Entry("/ rolls right", "/&", geom.V3(0, 1, 0), geom.V3(-1, 0, 0), true),
			Entry("f jumps", "f", geom.V3(0, 2, 0), geom.V3(0, 1, 0), false),
			Entry("X does nothing", "X", geom.V3(0, 1, 0), geom.V3(0, 1, 0), false),
		)

		It("starts a new segment after a jump", func() {
			it, _ := growth.New(registry(plain("gap", "FfF")), sink)
			grow(it, "gap")

			Expect(it.Tick(1)).To(Succeed())
			Expect(it.Len()).To(Equal(0))
			Expect(sink.ops()).To(Equal([]string{"open", "append", "close", "open", "append", "close"}))
			Expect(sink.samples[2][0].ApproxEqual(geom.V3(0, 2, 0), tol)).To(BeTrue())
		})

		It("flushes a trailing turn when the instance retires", func() {
			it, _ := growth.New(registry(plain("turn", "F+")), sink)
			grow(it, "turn")

			Expect(it.Tick(1)).To(Succeed())
			Expect(it.Len()).To(Equal(0))
			Expect(sink.ops()).To(Equal([]string{"open", "append", "append", "close"}))
			Expect(sink.samples[1]).To(HaveLen(2))
			Expect(sink.samples[1][0].ApproxEqual(geom.Vec3{}, tol)).To(BeTrue())
			Expect(sink.samples[1][1].ApproxEqual(geom.V3(0, 1, 0), tol)).To(BeTrue())
		})
	})

	Describe("a branch", func() {
		var it *growth.Interpreter

		BeforeEach(func() {
			var err error
			it, err = growth.New(registry(plain("branch", "F[+F]FX")), sink)
			Expect(err).NotTo(HaveOccurred())
			grow(it, "branch")
		})

		It("restores the trunk frame and commits two segments", func() {
			// 6.25 units pay for six symbols and leave X pending.
			Expect(it.Tick(0.0625)).To(Succeed())

			info := it.Instances()[0]
			Expect(info.Cursor).To(Equal(6))
			Expect(info.Depth).To(Equal(1))
			Expect(info.Position.ApproxEqual(geom.V3(0, 2, 0), tol)).To(BeTrue())
			Expect(info.Heading.ApproxEqual(geom.V3(0, 1, 0), tol)).To(BeTrue())
			Expect(info.Segments).To(Equal(2))
			Expect(info.Budget).To(BeNumerically("~", 0.25, tol))

			Expect(it.Tick(0.01)).To(Succeed())
			Expect(it.Len()).To(Equal(0))
			Expect(sink.closed).To(HaveLen(2))
			Expect(sink.open).To(BeEmpty())
			Expect(sink.samples[1]).To(HaveLen(2))
			Expect(sink.samples[2]).To(HaveLen(1))
			Expect(sink.samples[2][0].ApproxEqual(geom.V3(0, 1, 0), tol)).To(BeTrue())
		})

		It("never appends after a close", func() {
			Expect(it.Tick(1)).To(Succeed())
			closed := map[growth.SegmentID]bool{}
			for _, e := range sink.events {
				switch e.op {
				case "append":
					Expect(closed[e.id]).To(BeFalse())
				case "close":
					closed[e.id] = true
				}
			}
		})
	})

	Describe("an unbalanced bracket", func() {
		It("aborts only the offending instance", func() {
			it, _ := growth.New(registry(plain("bad", "]F"), plain("good", "FFFF")), sink)
			grow(it, "bad")
			grow(it, "good")

			err := it.Tick(0.02)
			Expect(err).To(MatchError(turtle.ErrStackUnderflow))

			var ie *growth.InstanceError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.ID).To(Equal(1))
			Expect(ie.Grammar).To(Equal("bad"))
			Expect(ie.Cursor).To(Equal(0))
			Expect(ie.Symbol).To(Equal(']'))

			infos := it.Instances()
			Expect(infos).To(HaveLen(1))
			Expect(infos[0].Grammar).To(Equal("good"))
			Expect(infos[0].Cursor).To(Equal(2))

			Expect(it.Tick(0.02)).To(Succeed())
			Expect(it.Len()).To(Equal(0))
		})

		It("closes the segment the failed instance had open", func() {
			it, _ := growth.New(registry(plain("late", "F]")), sink)
			grow(it, "late")

			Expect(it.Tick(1)).To(MatchError(turtle.ErrStackUnderflow))
			Expect(sink.open).To(BeEmpty())
			Expect(sink.closed).To(HaveLen(1))
		})

		It("reports sink failures the same way", func() {
			it, _ := growth.New(registry(plain("line", "F")), sink)
			sink.failOpen = true
			grow(it, "line")

			err := it.Tick(1)
			Expect(err).To(MatchError(errSinkDown))
			Expect(it.Len()).To(Equal(0))
		})
	})

	Describe("pacing", func() {
		It("consumes the same symbols however the time is chunked", func() {
			run := func(delta float64, n int) *scene.Scene {
				s := scene.New()
				it, err := growth.New(lsystem.Builtin(), s, growth.WithSeed(7))
				Expect(err).NotTo(HaveOccurred())
				grow(it, "")
				for i := 0; i < n; i++ {
					Expect(it.Tick(delta)).To(Succeed())
				}
				return s
			}

			whole := run(1, 3)
			chunked := run(0.25, 12)
			Expect(chunked.Segments()).To(Equal(whole.Segments()))
		})

		DescribeTable("pays for every symbol a second of frames adds up to",
			func(delta float64, frames int) {
				it, _ := growth.New(registry(plain("idle", strings.Repeat("X", 5000))), sink)
				grow(it, "idle")
				for i := 0; i < frames; i++ {
					Expect(it.Tick(delta)).To(Succeed())
				}
				Expect(it.Instances()[0].Cursor).To(Equal(100))
			},
			Entry("one whole second", 1.0, 1),
			Entry("30 Hz", 1.0/30, 30),
			Entry("60 Hz", 1.0/60, 60),
			Entry("144 Hz", 1.0/144, 144),
			Entry("tenths", 0.1, 10),
			Entry("milliseconds", 0.001, 1000),
		)

		It("carries fractional budget over tick boundaries", func() {
			line := plain("line", "FFFFX")
			line.Speed = 100
			it, _ := growth.New(registry(line), sink)
			grow(it, "line")

			for i := 0; i < 4; i++ {
				Expect(it.Tick(0.25)).To(Succeed())
			}
			Expect(it.Instances()[0].Cursor).To(Equal(1))

			Expect(it.Tick(0.5)).To(Succeed())
			Expect(it.Instances()[0].Cursor).To(Equal(1))
			Expect(it.Tick(0.75)).To(Succeed())
			Expect(it.Instances()[0].Cursor).To(Equal(2))
			Expect(it.Instances()[0].Budget).To(Equal(25.0))
		})

		It("honours a slower speed", func() {
			slow := plain("slow", "FFFFX")
			slow.Speed = 2
			it, _ := growth.New(registry(slow), sink)
			grow(it, "slow")

			Expect(it.Tick(0.0625)).To(Succeed())
			Expect(it.Instances()[0].Cursor).To(Equal(3))
			Expect(it.Instances()[0].Budget).To(BeNumerically("~", 0.25, tol))
		})

		It("rejects negative and non-finite deltas", func() {
			it, _ := growth.New(lsystem.Builtin(), sink)
			for _, d := range []float64{-0.1, math.NaN(), math.Inf(1)} {
				Expect(it.Tick(d)).To(MatchError(growth.ErrNegativeDelta))
			}
			Expect(it.Tick(0)).To(Succeed())
		})

		It("does not advance pending instances", func() {
			it, _ := growth.New(lsystem.Builtin(), sink)
			Expect(it.Trigger()).To(BeTrue())
			Expect(it.Tick(1)).To(Succeed())
			Expect(it.Instances()[0].State).To(Equal(growth.Pending))
			Expect(sink.events).To(BeEmpty())
		})
	})

	Describe("instance lifecycle", func() {
		var it *growth.Interpreter

		BeforeEach(func() {
			var err error
			it, err = growth.New(lsystem.Builtin(), sink, growth.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())
		})

		It("ignores a fourth trigger", func() {
			for i := 0; i < 3; i++ {
				Expect(it.Trigger()).To(BeTrue())
			}
			Expect(it.Trigger()).To(BeFalse())
			Expect(it.Len()).To(Equal(3))
		})

		It("frees a slot when an instance retires", func() {
			r := registry(plain("dot", "F"))
			it, _ := growth.New(r, sink)
			for i := 0; i < 3; i++ {
				grow(it, "dot")
			}
			Expect(it.Trigger()).To(BeFalse())
			Expect(it.Tick(1)).To(Succeed())
			Expect(it.Trigger()).To(BeTrue())
		})

		It("treats a release without a pending instance as a no-op", func() {
			Expect(it.Release(geom.Vec3{}, geom.IdentityQuat(), 1, "")).To(Succeed())
			Expect(it.Len()).To(Equal(0))
		})

		It("releases the most recent pending instance", func() {
			Expect(it.Trigger()).To(BeTrue())
			Expect(it.Trigger()).To(BeTrue())
			Expect(it.Release(geom.V3(1, 2, 3), geom.IdentityQuat(), 0.5, "")).To(Succeed())

			infos := it.Instances()
			Expect(infos[0].State).To(Equal(growth.Pending))
			Expect(infos[1].State).To(Equal(growth.Active))
			Expect(infos[1].Position).To(Equal(geom.V3(1, 2, 3)))
		})

		It("discards the pending instance when the grammar is unknown", func() {
			Expect(it.Trigger()).To(BeTrue())
			err := it.Release(geom.Vec3{}, geom.IdentityQuat(), 1, "nope")
			Expect(err).To(MatchError(lsystem.ErrUnknownGrammar))
			Expect(it.Len()).To(Equal(0))
		})

		It("applies a grammar selection only to later instances", func() {
			grow(it, "")
			Expect(it.SelectGrammar("tiltTree")).To(Succeed())
			grow(it, "")

			infos := it.Instances()
			Expect(infos[0].Grammar).To(Equal("simpleTree"))
			Expect(infos[1].Grammar).To(Equal("tiltTree"))
			Expect(it.Selected()).To(Equal("tiltTree"))
		})

		It("keeps the selection when the name is unknown", func() {
			Expect(it.SelectGrammar("nope")).To(MatchError(lsystem.ErrUnknownGrammar))
			Expect(it.Selected()).To(Equal("simpleTree"))
		})

		It("paints later instances in the new colour", func() {
			grow(it, "")
			it.SetColor(brush.RGB(0, 255, 0))
			grow(it, "")

			infos := it.Instances()
			Expect(infos[0].Color).To(Equal(brush.Bark))
			Expect(infos[1].Color).To(Equal(brush.RGB(0, 255, 0)))
		})

		It("abandons everything but keeps committed geometry", func() {
			grow(it, "")
			Expect(it.Trigger()).To(BeTrue())
			Expect(it.Tick(0.05)).To(Succeed())
			Expect(sink.open).NotTo(BeEmpty())

			Expect(it.Abandon()).To(Succeed())
			Expect(it.Len()).To(Equal(0))
			Expect(sink.open).To(BeEmpty())
			Expect(sink.closed).NotTo(BeEmpty())
		})
	})

	Describe("full growth", func() {
		It("returns to the root frame after nested branches", func() {
			it, _ := growth.New(registry(plain("nested", "F[+F[-F]F]FX")), sink)
			grow(it, "nested")

			Expect(it.Tick(0.115)).To(Succeed())
			info := it.Instances()[0]
			Expect(info.Cursor).To(Equal(11))
			Expect(info.Depth).To(Equal(1))
			Expect(info.Position.ApproxEqual(geom.V3(0, 2, 0), tol)).To(BeTrue())
		})

		It("retires every builtin grammar cleanly", func() {
			for _, name := range lsystem.Builtin().Names() {
				s := scene.New()
				it, err := growth.New(lsystem.Builtin(), s, growth.WithSeed(11), growth.WithSelection(name))
				Expect(err).NotTo(HaveOccurred())
				Expect(it.Derivation().MaxDepth()).To(BeNumerically(">=", 0), name)

				grow(it, "")
				Expect(it.Tick(1000)).To(Succeed(), name)
				Expect(it.Len()).To(Equal(0), name)
				Expect(s.Len()).To(BeNumerically(">", 0), name)
			}
		})

		It("pushes one undo command per committed segment", func() {
			h := &countingHistory{}
			s := scene.New()
			it, _ := growth.New(lsystem.Builtin(), s, growth.WithSeed(5), growth.WithHistory(h))
			grow(it, "")
			Expect(it.Tick(1000)).To(Succeed())

			Expect(s.Len()).To(BeNumerically(">", 1))
			Expect(h.cmds).To(HaveLen(s.Len()))
		})

		It("lets the scene undo a whole tree", func() {
			u := scene.NewUndoStack(0)
			s := scene.New()
			it, _ := growth.New(lsystem.Builtin(), s, growth.WithSeed(5), growth.WithHistory(u))
			grow(it, "")
			Expect(it.Tick(1000)).To(Succeed())

			for u.CanUndo() {
				_, err := u.Undo()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(s.Visible()).To(BeEmpty())
		})
	})

	Describe("Dispatch", func() {
		It("routes every action", func() {
			it, _ := growth.New(lsystem.Builtin(), sink, growth.WithSeed(2))
			actions := []growth.Action{
				growth.SelectAction{Grammar: "bush"},
				growth.ColorAction{Color: brush.RGB(1, 2, 3)},
				growth.TriggerAction{},
				growth.ReleaseAction{Position: geom.V3(0, 1, 0), Orientation: geom.IdentityQuat(), Pressure: 1},
				growth.TickAction{Delta: 0.5},
			}
			for _, a := range actions {
				Expect(it.Dispatch(a)).To(Succeed())
			}
			Expect(it.Selected()).To(Equal("bush"))
			Expect(it.Instances()).To(HaveLen(1))
			Expect(it.Instances()[0].Grammar).To(Equal("bush"))
			Expect(it.Instances()[0].Color).To(Equal(brush.RGB(1, 2, 3)))

			Expect(it.Dispatch(growth.AbandonAction{})).To(Succeed())
			Expect(it.Len()).To(Equal(0))
			Expect(it.Dispatch(growth.TickAction{Delta: -1})).To(MatchError(growth.ErrNegativeDelta))
		})
	})

	Describe("observers", func() {
		It("accumulate tick statistics", func() {
			stats := growth.NewStats()
			var last growth.TickStats
			it, _ := growth.New(registry(plain("line", "FFFF")), sink,
				growth.WithObserver(stats),
				growth.WithObserver(growth.ObserverFunc(func(t growth.TickStats) { last = t })))
			grow(it, "line")

			Expect(it.Tick(0.02)).To(Succeed())
			Expect(last.Consumed).To(Equal(2))
			Expect(last.Opened).To(Equal(1))
			Expect(last.Active).To(Equal(1))

			Expect(it.Tick(0.02)).To(Succeed())
			Expect(last.Retired).To(Equal([]int{1}))
			Expect(last.Active).To(Equal(0))

			Expect(stats.Ticks).To(Equal(2))
			Expect(stats.Consumed).To(Equal(4))
			Expect(stats.Segments).To(Equal(1))
			Expect(stats.Retired).To(Equal(1))
			Expect(stats.PeakLive).To(Equal(1))
			Expect(stats.PerTick).To(Equal([]float64{2, 2}))
			Expect(stats.Rate()).To(BeNumerically("~", 100, 1e-6))

			stats.Reset()
			Expect(stats.Ticks).To(Equal(0))
		})
	})
})
