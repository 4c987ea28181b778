package domain

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	m "github.com/mouse-blink/weave/internal/model"
)

// Scheduler applies every directive of a run to a target tree.
type Scheduler interface {
	// Weave mutates tree in place and returns one outcome per directive in
	// declaration order. On error the tree may be partially rewritten and
	// must not be emitted.
	Weave(ctx context.Context, tree *m.TargetTree, units []m.MixinUnit) ([]m.Outcome, error)
}

type scheduler struct {
	workers int
	log     *zap.Logger
}

// NewScheduler constructs a Scheduler weaving at most workers target files
// concurrently. A non-positive value uses GOMAXPROCS.
func NewScheduler(workers int, log *zap.Logger) Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &scheduler{workers: workers, log: log}
}

// fileGroup is the ordered work for one target file. Sequences nested in
// the same file share text, so exactly one worker owns the whole file.
type fileGroup struct {
	file  *m.File
	order []int
}

// Directives flattens units into a single declaration-ordered list and
// numbers each directive with its position.
func Directives(units []m.MixinUnit) []m.Directive {
	var all []m.Directive

	for _, unit := range units {
		for _, d := range unit.Directives {
			d.Order = len(all)
			all = append(all, d)
		}
	}

	return all
}

func (s *scheduler) Weave(ctx context.Context, tree *m.TargetTree, units []m.MixinUnit) ([]m.Outcome, error) {
	directives := Directives(units)

	groups, targets, err := s.group(tree, directives)
	if err != nil {
		return nil, err
	}

	outcomes := make([]m.Outcome, len(directives))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, grp := range groups {
		g.Go(func() error {
			for _, idx := range grp.order {
				if err := gctx.Err(); err != nil {
					return err
				}

				d := directives[idx]

				if !grp.file.Body.Contains(targets[idx]) {
					outcomes[idx] = removed(d, "target declaration was removed by an earlier directive")
					s.logOutcome(outcomes[idx])

					continue
				}

				outcome, err := Apply(targets[idx], d)
				if err != nil {
					return err
				}

				s.logOutcome(outcome)
				outcomes[idx] = outcome
			}

			s.discardDetached(grp, directives, targets, outcomes)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outcomes, nil
}

// discardDetached downgrades applied outcomes whose target declaration a
// later directive removed; their edits are no longer part of the file.
func (s *scheduler) discardDetached(grp *fileGroup, directives []m.Directive, targets []*m.Sequence, outcomes []m.Outcome) {
	for _, idx := range grp.order {
		if outcomes[idx].Status != m.OutcomeApplied || grp.file.Body.Contains(targets[idx]) {
			continue
		}

		outcomes[idx] = removed(directives[idx], "target declaration was removed by a later directive")
		s.logOutcome(outcomes[idx])
	}
}

func removed(d m.Directive, reason string) m.Outcome {
	return m.Outcome{
		Unit:       d.Unit,
		Definition: d.Definition,
		Mode:       d.Mode,
		Target:     d.Target.String(),
		Status:     m.OutcomeSkipped,
		Reason:     reason,
	}
}

// group resolves every target before anything is mutated, so a missing
// target never leaves the tree half-woven. targets[i] is the sequence of
// directives[i].
func (s *scheduler) group(tree *m.TargetTree, directives []m.Directive) ([]*fileGroup, []*m.Sequence, error) {
	byFile := make(map[*m.File]*fileGroup)
	targets := make([]*m.Sequence, len(directives))

	var groups []*fileGroup

	for i, d := range directives {
		seq, err := Resolve(tree, d.Target)
		if err != nil {
			var notFound *TargetNotFoundError
			if errors.As(err, &notFound) {
				notFound.Location = d.Location
				return nil, nil, notFound
			}

			return nil, nil, fmt.Errorf("resolving %s: %w", d.Target, err)
		}

		targets[i] = seq

		file, _ := tree.File(d.Target.File)

		grp, ok := byFile[file]
		if !ok {
			grp = &fileGroup{file: file}
			byFile[file] = grp
			groups = append(groups, grp)
		}

		grp.order = append(grp.order, i)
	}

	s.log.Debug("directives grouped", zap.Int("directives", len(directives)), zap.Int("files", len(groups)))

	return groups, targets, nil
}

func (s *scheduler) logOutcome(o m.Outcome) {
	if o.Status == m.OutcomeSkipped {
		s.log.Info("directive skipped",
			zap.String("definition", o.Definition),
			zap.String("target", o.Target),
			zap.String("reason", o.Reason))

		return
	}

	s.log.Debug("directive applied",
		zap.String("definition", o.Definition),
		zap.String("mode", string(o.Mode)),
		zap.String("target", o.Target),
		zap.Int("start", o.Span.Start),
		zap.Int("end", o.Span.End),
		zap.Int("delta", o.Delta))
}
