package epidemic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ecampos-dev/epinet/internal/network"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
	"github.com/ecampos-dev/epinet/pkg/metrics"
)

// EventSink receives simulation lifecycle events. It must never block; the
// analytics collector satisfies it.
type EventSink interface {
	Track(event any)
}

// StartParams configures a new simulation run.
type StartParams struct {
	Beta         float64
	PatientsZero int
	Mode         network.WeightMode
	// Seed is the PRNG seed; nil means process-chosen, and the chosen
	// value is recorded on the run either way.
	Seed *int64
	// DaySequence overrides the configured default when non-empty.
	DaySequence []string
}

// Simulator starts runs and advances them tick-by-tick against the cached
// per-day contact matrices.
type Simulator struct {
	provider    *network.Provider
	registry    *Registry
	events      EventSink
	metrics     *metrics.Metrics
	defaultDays []string
	logger      *slog.Logger
}

// NewSimulator wires a Simulator. events and m may be nil.
func NewSimulator(provider *network.Provider, registry *Registry, events EventSink, m *metrics.Metrics, defaultDays []string) *Simulator {
	return &Simulator{
		provider:    provider,
		registry:    registry,
		events:      events,
		metrics:     m,
		defaultDays: defaultDays,
		logger:      slog.Default().With("component", "epidemic-simulator"),
	}
}

// Start validates the parameters, selects the patient-zero indices
// deterministically from the run's seed, registers the run, and returns it
// in the Running state. No state is mutated on a validation failure.
func (s *Simulator) Start(ctx context.Context, params StartParams) (*Run, error) {
	if params.Beta < 0 || params.Beta > 1 {
		return nil, fmt.Errorf("%w: beta %v not in [0,1]", apperrors.ErrInvalidParameter, params.Beta)
	}
	if _, err := network.ParseWeightMode(string(params.Mode)); err != nil {
		return nil, err
	}

	mapper, err := s.provider.Mapper(ctx)
	if err != nil {
		return nil, err
	}
	n := mapper.Len()
	if params.PatientsZero < 1 || params.PatientsZero > n {
		return nil, fmt.Errorf("%w: num_patients_zero %d not in [1,%d]", apperrors.ErrInvalidParameter, params.PatientsZero, n)
	}

	days := params.DaySequence
	if len(days) == 0 {
		days = s.defaultDays
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: empty day sequence", apperrors.ErrInvalidParameter)
	}

	seed := time.Now().UnixNano()
	if params.Seed != nil {
		seed = *params.Seed
	}

	// The run owns a single seeded stream: patient-zero selection draws
	// from it first, then each tick's per-node samples continue it, so a
	// given seed always reproduces the full timeline.
	rng := rand.New(rand.NewSource(seed))
	patientsZero := rng.Perm(n)[:params.PatientsZero]

	infected := NewBitset(n)
	for _, idx := range patientsZero {
		infected.Set(idx)
	}

	run := &Run{
		ID:           uuid.NewString(),
		Beta:         params.Beta,
		Mode:         params.Mode,
		Seed:         seed,
		DaySequence:  days,
		PatientsZero: patientsZero,
		state:        StateInitialized,
		infected:     infected,
		rng:          rng,
	}
	if err := s.registry.Create(run); err != nil {
		return nil, err
	}
	run.mu.Lock()
	run.state = StateRunning
	run.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SimulationRunsTotal.Inc()
	}
	if s.events != nil {
		s.events.Track(RunStartedEvent{
			Type:         EventRunStarted,
			RunID:        run.ID,
			Beta:         run.Beta,
			PatientsZero: len(run.PatientsZero),
			WeightMode:   string(run.Mode),
			Seed:         run.Seed,
			Timestamp:    time.Now().UTC(),
		})
	}
	s.logger.Info("simulation started",
		"run_id", run.ID,
		"beta", run.Beta,
		"patients_zero", len(run.PatientsZero),
		"weight_mode", string(run.Mode),
		"seed", run.Seed,
		"days", len(run.DaySequence),
	)
	return run, nil
}

// Tick advances the run by one day: exposure E = M*I, per-node infection
// probability P_i = 1 - exp(-beta*E_i), one uniform draw per
// still-susceptible node consumed in ascending index order. Zero exposure
// yields zero probability, infected nodes are never re-evaluated, and the
// probability saturates toward 1 as exposure grows.
func (s *Simulator) Tick(ctx context.Context, runID, day string) (DayResult, error) {
	run, err := s.registry.Get(runID)
	if err != nil {
		return DayResult{}, err
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	if run.state == StateCompleted {
		return DayResult{}, fmt.Errorf("%w: %q", apperrors.ErrRunCompleted, runID)
	}

	matrix, mapper, err := s.provider.MatrixForDay(ctx, day, run.Mode)
	if err != nil {
		return DayResult{}, err
	}
	n := run.infected.Len()
	if mapper.Len() != n {
		return DayResult{}, fmt.Errorf("%w: dataset changed during run %q (%d nodes, run started with %d)",
			apperrors.ErrInternal, runID, mapper.Len(), n)
	}

	exposure := matrix.Multiply(run.infected.Floats())

	var newInfected []int
	for i := 0; i < n; i++ {
		if run.infected.Get(i) {
			continue
		}
		sample := run.rng.Float64()
		p := 1 - math.Exp(-run.Beta*exposure[i])
		if sample < p {
			newInfected = append(newInfected, i)
		}
	}

	// Attribute each new infection to its first infected contact in the
	// day's matrix (ascending column order), before the infected vector is
	// updated. A new case always has such a contact since its exposure was
	// nonzero.
	transmissions := make([]Transmission, 0, len(newInfected))
	for _, target := range newInfected {
		cols, weights := matrix.Neighbors(target)
		for k, source := range cols {
			if run.infected.Get(source) {
				transmissions = append(transmissions, Transmission{
					Source: source,
					Target: target,
					Weight: weights[k],
					Day:    day,
				})
				break
			}
		}
	}
	for _, idx := range newInfected {
		run.infected.Set(idx)
	}

	result := DayResult{
		Day:           day,
		DayNumber:     len(run.history),
		NewInfected:   newInfected,
		TotalInfected: run.infected.Count(),
		Transmissions: transmissions,
		Snapshot:      run.infected.Clone(),
	}
	run.history = append(run.history, result)
	if len(run.history) >= len(run.DaySequence) {
		run.state = StateCompleted
	}

	if s.metrics != nil {
		s.metrics.SimulationTicksTotal.Inc()
		s.metrics.NewInfectionsPerTick.Observe(float64(len(newInfected)))
	}
	if s.events != nil {
		s.events.Track(TickEvent{
			Type:          EventTickCompleted,
			RunID:         run.ID,
			Day:           day,
			DayNumber:     result.DayNumber,
			NewInfected:   len(newInfected),
			TotalInfected: result.TotalInfected,
			Timestamp:     time.Now().UTC(),
		})
		if run.state == StateCompleted {
			s.events.Track(RunCompletedEvent{
				Type:          EventRunCompleted,
				RunID:         run.ID,
				TotalInfected: result.TotalInfected,
				AttackRate:    float64(result.TotalInfected) / float64(n),
				Days:          len(run.history),
				Timestamp:     time.Now().UTC(),
			})
		}
	}
	s.logger.Info("tick completed",
		"run_id", run.ID,
		"day", day,
		"new_infected", len(newInfected),
		"total_infected", result.TotalInfected,
		"state", string(run.state),
	)
	return result, nil
}

// RunRemaining ticks the run through its unfinished day sequence in order,
// stopping at the first failure and returning the results produced up to
// that point.
func (s *Simulator) RunRemaining(ctx context.Context, runID string) ([]DayResult, error) {
	run, err := s.registry.Get(runID)
	if err != nil {
		return nil, err
	}

	var results []DayResult
	for _, day := range run.RemainingDays() {
		result, err := s.Tick(ctx, runID, day)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
