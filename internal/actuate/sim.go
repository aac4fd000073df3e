package actuate

import (
	"sync"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// Sim is an in-memory backend that integrates moves into a virtual pointer
// position. It backs dry runs and tests where no real input device exists.
type Sim struct {
	mu        sync.Mutex
	pos       geom.Vector2
	moves     int
	pulses    []string
	failMoves bool
}

// NewSim starts the virtual pointer at origin.
func NewSim(origin geom.Vector2) *Sim {
	return &Sim{pos: origin}
}

func (s *Sim) Name() string { return "sim" }

func (s *Sim) Move(dx, dy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMoves {
		return false
	}
	s.pos = s.pos.Add(geom.Vector2{X: dx, Y: dy})
	s.moves++
	return true
}

func (s *Sim) Activate(button string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulses = append(s.pulses, button)
	return true
}

// Position returns the integrated pointer position.
func (s *Sim) Position() geom.Vector2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Moves returns how many relative moves were applied.
func (s *Sim) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// Pulses returns the buttons activated so far, in order.
func (s *Sim) Pulses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.pulses))
	copy(out, s.pulses)
	return out
}

// SetFailMoves makes subsequent Move calls report failure.
func (s *Sim) SetFailMoves(fail bool) {
	s.mu.Lock()
	s.failMoves = fail
	s.mu.Unlock()
}
