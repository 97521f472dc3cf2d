package services

import (
	"context"
	"fmt"

	"gastos/internal/log"
)

// SagaStep pairs a forward action with its compensation.
type SagaStep struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order. When a step fails, the compensations of the
// steps that already ran are executed in reverse order, best effort, and
// the original failure is returned. Compensation errors are logged, not
// returned, since the forward error is the one the caller must act on.
type Saga struct {
	logger *log.Logger
	steps  []SagaStep
}

func NewSaga(logger *log.Logger) *Saga {
	return &Saga{logger: logger}
}

func (s *Saga) AddStep(name string, forward, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, SagaStep{Name: name, Forward: forward, Compensate: compensate})
}

func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Forward(ctx); err != nil {
			s.unwind(ctx, i)
			return fmt.Errorf("saga step %q: %w", step.Name, err)
		}
	}
	return nil
}

func (s *Saga) unwind(ctx context.Context, failedIndex int) {
	for i := failedIndex - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Saga compensation failed",
				"step", step.Name, "error", err)
		} else {
			s.logger.InfoContext(ctx, "Saga step compensated", "step", step.Name)
		}
	}
}
