package detect

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Synthetic is a stand-in detector that orbits one target around the capture
// center. It exists for dry runs and end-to-end tests where no real
// detection pipeline is attached.
type Synthetic struct {
	mu     sync.Mutex
	rng    *rand.Rand
	start  time.Time
	now    func() time.Time
	center float64
	radius float64
	period time.Duration
	size   float64
}

// NewSynthetic builds a detector orbiting at the given radius inside a
// square capture of captureSize pixels.
func NewSynthetic(captureSize int, radius float64, period time.Duration, seed int64) *Synthetic {
	s := &Synthetic{
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
		center: float64(captureSize) / 2,
		radius: radius,
		period: period,
		size:   float64(captureSize) * 0.12,
	}
	s.start = s.now()
	return s
}

// Detect returns the single orbiting candidate with a little positional
// jitter and a high but wavering confidence.
func (s *Synthetic) Detect(_ context.Context) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.now().Sub(s.start)
	phase := 2 * math.Pi * float64(elapsed%s.period) / float64(s.period)

	jx := (s.rng.Float64()*2 - 1) * 1.5
	jy := (s.rng.Float64()*2 - 1) * 1.5

	c := Candidate{
		Width:      s.size * 0.6,
		Height:     s.size,
		Confidence: 0.85 + s.rng.Float64()*0.1,
	}
	c.Center.X = s.center + s.radius*math.Cos(phase) + jx
	c.Center.Y = s.center + s.radius*math.Sin(phase) + jy
	return []Candidate{c}, nil
}
