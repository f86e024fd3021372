package codemod

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// State is the lifecycle position of one file in a pipeline.
type State string

const (
	StateUnvisited State = "unvisited"
	StateSkipped   State = "skipped"
	StateDone      State = "done"
)

// Rule maps one Modifications to the next. A rule that finds nothing to do
// must return its input unchanged.
type Rule struct {
	Name  string
	Apply func(ctx context.Context, m *Modifications) (*Modifications, error)
}

// PlanFunc records the edits of one rule run into s.
type PlanFunc func(ctx context.Context, m *Modifications, s *EditSet) error

// Batch builds a rule whose edits are collected by plan and committed as a
// single batch.
func Batch(name string, plan PlanFunc) Rule {
	return Rule{
		Name: name,
		Apply: func(ctx context.Context, m *Modifications) (*Modifications, error) {
			s := NewEditSet(m.Source())
			if err := plan(ctx, m, s); err != nil {
				return m, err
			}
			return Commit(ctx, s.Edits(), m)
		},
	}
}

// Pipeline runs an ordered list of rules over one file. When Precondition
// rejects the input no rule runs and the file is reported as skipped.
type Pipeline struct {
	Name         string
	Precondition func(m *Modifications) bool
	Rules        []Rule
}

// Run folds m through every rule. On error the last successfully produced
// Modifications is returned together with the error so the caller can
// release it.
func (p *Pipeline) Run(ctx context.Context, m *Modifications) (*Modifications, State, error) {
	if p.Precondition != nil && !p.Precondition(m) {
		slog.Debug("pipeline.skip", "pipeline", p.Name, "file", m.Filename)
		return m, StateSkipped, nil
	}

	cur := m
	for _, r := range p.Rules {
		if err := ctx.Err(); err != nil {
			return cur, StateUnvisited, err
		}
		t := time.Now()
		next, err := r.Apply(ctx, cur)
		if err != nil {
			slog.Warn("rule.err", "rule", r.Name, "file", m.Filename, "err", err)
			if next != nil && next != cur {
				cur = next
			}
			return cur, StateUnvisited, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if next != cur {
			slog.Debug("rule.apply",
				"rule", r.Name,
				"file", m.Filename,
				"changes", next.Report.ChangesApplied-cur.Report.ChangesApplied,
				"elapsed", time.Since(t),
			)
		}
		cur = next
	}
	return cur, StateDone, nil
}
