package motion

import (
	"sync"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// mockActuator records every dispatched move and offers per-call scenario
// control: blocking at a given call so the test can interleave submissions
// deterministically, failing at a given call, or panicking at one.
type mockActuator struct {
	mu    sync.Mutex
	moves []geom.Vector2

	failOnCall  int // 1-based call number that reports failure
	panicOnCall int // 1-based call number that panics
	callCount   int

	// blockOnCall pauses inside that call: entered is signalled, then the
	// call waits for release. Zero disables blocking.
	blockOnCall int
	entered     chan struct{}
	release     chan struct{}
}

func newMockActuator() *mockActuator {
	return &mockActuator{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (m *mockActuator) Move(dx, dy float64) bool {
	m.mu.Lock()
	m.callCount++
	call := m.callCount
	if m.panicOnCall > 0 && call == m.panicOnCall {
		m.mu.Unlock()
		panic("actuator exploded")
	}
	if m.failOnCall > 0 && call == m.failOnCall {
		m.mu.Unlock()
		return false
	}
	m.moves = append(m.moves, geom.Vector2{X: dx, Y: dy})
	block := m.blockOnCall > 0 && call == m.blockOnCall
	m.mu.Unlock()

	if block {
		m.entered <- struct{}{}
		<-m.release
	}
	return true
}

func (m *mockActuator) recorded() []geom.Vector2 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]geom.Vector2, len(m.moves))
	copy(out, m.moves)
	return out
}

func (m *mockActuator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// atomicFlag is a tiny mutex-guarded bool used as an interrupt predicate in
// tests.
type atomicFlag struct {
	mu  sync.Mutex
	set bool
}

func (f *atomicFlag) Set(v bool) {
	f.mu.Lock()
	f.set = v
	f.mu.Unlock()
}

func (f *atomicFlag) Get() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}
