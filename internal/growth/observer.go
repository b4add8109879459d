package growth

// TickStats summarises one Tick.
type TickStats struct {
	Delta    float64
	Consumed int // symbols interpreted across all instances
	Opened   int // segments opened
	Active   int // after the tick
	Pending  int
	Retired  []int
	Failed   []int
}

// Observer is notified after every Tick.
type Observer interface {
	OnTick(s TickStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(TickStats)

func (f ObserverFunc) OnTick(s TickStats) { f(s) }

// Stats accumulates tick statistics for reporting and plotting.
type Stats struct {
	Ticks    int
	Elapsed  float64
	Consumed int
	Segments int
	Retired  int
	Failed   int
	PeakLive int

	// PerTick holds the symbols consumed by each tick.
	PerTick []float64
}

func NewStats() *Stats { return &Stats{} }

func (s *Stats) OnTick(t TickStats) {
	s.Ticks++
	s.Elapsed += t.Delta
	s.Consumed += t.Consumed
	s.Segments += t.Opened
	s.Retired += len(t.Retired)
	s.Failed += len(t.Failed)
	if live := t.Active + t.Pending; live > s.PeakLive {
		s.PeakLive = live
	}
	s.PerTick = append(s.PerTick, float64(t.Consumed))
}

// Rate is the mean number of symbols interpreted per second.
func (s *Stats) Rate() float64 {
	if s.Elapsed == 0 {
		return 0
	}
	return float64(s.Consumed) / s.Elapsed
}

func (s *Stats) Reset() { *s = Stats{} }
