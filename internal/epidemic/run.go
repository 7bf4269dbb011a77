package epidemic

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/ecampos-dev/epinet/internal/network"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

// State is a run's lifecycle phase.
type State string

const (
	StateInitialized State = "initialized"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
)

// Transmission is one directed edge of the propagation tree: the contact
// judged to have carried the infection to a newly infected node, with the
// contact weight and the day it happened.
type Transmission struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Weight float64 `json:"weight"`
	Day    string  `json:"day"`
}

// DayResult is one tick's outcome: the infected snapshot after the day, the
// newly infected indices, and the transmissions attributed to them.
type DayResult struct {
	Day           string
	DayNumber     int
	NewInfected   []int
	TotalInfected int
	Transmissions []Transmission
	Snapshot      *Bitset
}

// Run owns one simulation's mutable state. All of it is guarded by mu;
// ticking a run is strictly sequential because each tick consumes the
// previous infection vector, while independent runs share nothing but the
// read-only network cache.
type Run struct {
	ID           string
	Beta         float64
	Mode         network.WeightMode
	Seed         int64
	DaySequence  []string
	PatientsZero []int

	mu       sync.Mutex
	state    State
	infected *Bitset
	rng      *rand.Rand
	history  []DayResult
}

// State returns the run's current lifecycle phase.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// History returns a copy of the per-day results so far.
func (r *Run) History() []DayResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DayResult, len(r.history))
	copy(out, r.history)
	return out
}

// Infected returns a snapshot of the current infected vector.
func (r *Run) Infected() *Bitset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infected.Clone()
}

// Transmissions returns the propagation tree recorded so far, one edge per
// infection, in tick order.
func (r *Run) Transmissions() []Transmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Transmission
	for _, result := range r.history {
		out = append(out, result.Transmissions...)
	}
	return out
}

// RemainingDays returns the not-yet-simulated suffix of the day sequence.
func (r *Run) RemainingDays() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest := r.DaySequence[len(r.history):]
	out := make([]string, len(rest))
	copy(out, rest)
	return out
}

// Registry is the process-wide store of simulation runs. Entries are
// immutable from the registry's point of view after creation; the map only
// grows and shrinks through Create and Discard.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRegistry returns an empty run registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

// Create registers a run under its id.
func (g *Registry) Create(run *Run) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.runs[run.ID]; exists {
		return fmt.Errorf("%w: %q", apperrors.ErrRunExists, run.ID)
	}
	g.runs[run.ID] = run
	return nil
}

// Get returns the run registered under id.
func (g *Registry) Get(id string) (*Run, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	run, ok := g.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownRun, id)
	}
	return run, nil
}

// Discard removes the run registered under id.
func (g *Registry) Discard(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.runs[id]; !ok {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownRun, id)
	}
	delete(g.runs, id)
	return nil
}

// Len returns the number of registered runs.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.runs)
}
