package domain

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mouse-blink/weave/internal/adapter"
	"github.com/mouse-blink/weave/internal/controller"
	m "github.com/mouse-blink/weave/internal/model"
)

const phpExt = ".php"

// reportHistory is how many run reports are kept in the reports directory.
const reportHistory = 20

// WeaveArgs configures one weave run.
type WeaveArgs struct {
	Injections m.Path
	Src        m.Path
	Cache      m.Path
	// Reports is where the run report is persisted; empty disables persistence.
	Reports m.Path

	CopyOther    bool
	Workers      int
	CallSites    bool
	DocumentRoot bool

	// Origin is the project root that document-root requires are relative to.
	Origin m.Path
}

// ListArgs configures the directive listing.
type ListArgs struct {
	Injections m.Path
}

// ViewArgs selects the report to display.
type ViewArgs struct {
	Reports m.Path
	RunID   string
}

// Workflow defines the weave use-cases driven by the commands.
type Workflow interface {
	// Weave runs the pipeline once and displays its report.
	Weave(ctx context.Context, args WeaveArgs) error
	// Watch weaves once, then again after every change below Injections or Src.
	Watch(ctx context.Context, args WeaveArgs) error
	// List parses the mixin units and displays their directives.
	List(args ListArgs) error
	// View displays a persisted report.
	View(args ViewArgs) error
}

type workflow struct {
	fsAdapter   adapter.SourceFSAdapter
	phpAdapter  adapter.PHPFileAdapter
	reportStore adapter.ReportStore
	watcher     adapter.Watcher
	ui          controller.UI
	emitter     Emitter
	log         *zap.Logger
}

// NewWorkflow creates a new Workflow instance with the provided adapters.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	phpAdapter adapter.PHPFileAdapter,
	reportStore adapter.ReportStore,
	watcher adapter.Watcher,
	ui controller.UI,
	log *zap.Logger,
) Workflow {
	if log == nil {
		log = zap.NewNop()
	}

	return &workflow{
		fsAdapter:   fsAdapter,
		phpAdapter:  phpAdapter,
		reportStore: reportStore,
		watcher:     watcher,
		ui:          ui,
		emitter:     NewEmitter(fsAdapter, phpAdapter, log),
		log:         log,
	}
}

func (w *workflow) Weave(ctx context.Context, args WeaveArgs) error {
	report, err := w.run(ctx, args)
	if err != nil {
		w.ui.DisplayWeaveError(err)
		return &displayedError{err: err}
	}

	return w.ui.DisplayReport(report)
}

func (w *workflow) Watch(ctx context.Context, args WeaveArgs) error {
	if w.watcher == nil {
		return errors.New("watch mode is not available")
	}

	rebuild := func() {
		report, err := w.run(ctx, args)
		if err != nil {
			w.log.Error("rebuild failed", zap.Error(err))
			w.ui.DisplayWeaveError(err)

			return
		}

		if err := w.ui.DisplayReport(report); err != nil {
			w.log.Error("display report", zap.Error(err))
		}
	}

	rebuild()

	roots := []m.Path{args.Injections, args.Src}
	w.ui.DisplayWatching(roots)

	return w.watcher.Watch(ctx, roots, func(changed []m.Path) {
		w.log.Debug("sources changed", zap.Int("paths", len(changed)))
		rebuild()
	})
}

func (w *workflow) List(args ListArgs) error {
	units, err := w.loadUnits(args.Injections)
	if err != nil {
		return err
	}

	return w.ui.DisplayDirectives(Directives(units))
}

func (w *workflow) View(args ViewArgs) error {
	var (
		report m.WeaveReport
		err    error
	)

	if args.RunID != "" {
		report, err = w.reportStore.LoadReport(args.Reports, args.RunID)
	} else {
		report, err = w.reportStore.LoadLatest(args.Reports)
	}

	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	return w.ui.DisplayReport(report)
}

// run executes the pipeline: parse units, parse targets, weave, emit, report.
// Nothing is written below Cache unless every directive succeeded.
func (w *workflow) run(ctx context.Context, args WeaveArgs) (m.WeaveReport, error) {
	units, err := w.loadUnits(args.Injections)
	if err != nil {
		return m.WeaveReport{}, err
	}

	tree, copies, err := w.loadTree(ctx, args)
	if err != nil {
		return m.WeaveReport{}, err
	}

	woven := units
	if args.CallSites {
		woven = CallSiteUnits(units)
	}

	outcomes, err := NewScheduler(args.Workers, w.log).Weave(ctx, tree, woven)
	if err != nil {
		return m.WeaveReport{}, err
	}

	if args.CallSites {
		added := ImportCallSites(tree, Directives(woven), outcomes, w.requireFunc(args))
		w.log.Debug("call sites imported", zap.Int("requires", added))
	}

	written, err := w.emitter.Emit(tree, EmitPlan{Src: args.Src, Cache: args.Cache, Copies: copies})
	if err != nil {
		return m.WeaveReport{}, err
	}

	report := m.WeaveReport{
		RunID:        uuid.NewString(),
		Created:      time.Now().UTC(),
		Files:        written,
		Units:        len(units),
		CallSites:    args.CallSites,
		DocumentRoot: args.DocumentRoot,
		Outcomes:     outcomes,
	}

	w.log.Info("weave complete",
		zap.String("run", report.RunID),
		zap.Int("applied", report.Count(m.OutcomeApplied)),
		zap.Int("skipped", report.Count(m.OutcomeSkipped)),
		zap.Int("files", written))

	if args.Reports != "" {
		if err := w.reportStore.SaveReport(args.Reports, report); err != nil {
			return m.WeaveReport{}, fmt.Errorf("failed to save report: %w", err)
		}

		if err := w.reportStore.CleanReports(args.Reports, reportHistory); err != nil {
			w.log.Warn("pruning old reports", zap.Error(err))
		}
	}

	return report, nil
}

// requireFunc renders require_once statements for call-site mode: relative
// to $_SERVER['DOCUMENT_ROOT'] when DocumentRoot is set, absolute otherwise.
func (w *workflow) requireFunc(args WeaveArgs) RequireFunc {
	origin := args.Origin
	if origin == "" {
		origin = m.Path(filepath.Dir(string(args.Injections)))
	}

	return func(unit m.Path) string {
		abs := w.fsAdapter.JoinPath(string(args.Injections), string(unit))

		if args.DocumentRoot {
			if rel, err := w.fsAdapter.RelPath(origin, abs); err == nil {
				return fmt.Sprintf(`require_once $_SERVER['DOCUMENT_ROOT'] . "/%s";`, filepath.ToSlash(string(rel)))
			}
		}

		return fmt.Sprintf(`require_once "%s";`, filepath.ToSlash(string(abs)))
	}
}

// loadUnits parses every file below dir as a mixin unit, in sorted path order.
func (w *workflow) loadUnits(dir m.Path) ([]m.MixinUnit, error) {
	files, err := w.fsAdapter.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list injections: %w", err)
	}

	units := make([]m.MixinUnit, 0, len(files))

	for _, rel := range files {
		content, err := w.fsAdapter.ReadFile(w.fsAdapter.JoinPath(string(dir), string(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read mixin unit %s: %w", rel, err)
		}

		unit, err := ParseUnit(rel, content)
		if err != nil {
			return nil, err
		}

		w.log.Debug("mixin unit parsed",
			zap.String("unit", string(rel)),
			zap.String("namespace", unit.Namespace),
			zap.Int("directives", len(unit.Directives)))

		units = append(units, unit)
	}

	return units, nil
}

// loadTree parses the PHP files below Src. It also returns the files that
// are copied unchanged: unparseable PHP always, other files with CopyOther.
func (w *workflow) loadTree(ctx context.Context, args WeaveArgs) (*m.TargetTree, []m.Path, error) {
	src := args.Src

	files, err := w.fsAdapter.ListFiles(src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sources: %w", err)
	}

	output := w.nestedOutput(src, args.Cache)
	tree := &m.TargetTree{}

	var copies []m.Path

	for _, rel := range files {
		if output != "" && (rel == output || strings.HasPrefix(string(rel), string(output)+"/")) {
			continue
		}

		if path.Ext(string(rel)) != phpExt {
			if args.CopyOther {
				copies = append(copies, rel)
			}

			continue
		}

		content, err := w.fsAdapter.ReadFile(w.fsAdapter.JoinPath(string(src), string(rel)))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read source %s: %w", rel, err)
		}

		file, err := w.phpAdapter.Parse(ctx, m.SourcePath(string(rel)), content)
		if err != nil {
			if errors.Is(err, adapter.ErrSyntax) {
				w.log.Warn("copying unparseable file unchanged", zap.String("file", string(rel)))

				copies = append(copies, rel)

				continue
			}

			return nil, nil, err
		}

		w.log.Debug("target file mapped",
			zap.String("file", string(file.Path)),
			zap.Int("classes", len(file.Classes)),
			zap.Int("functions", len(file.Functions)))

		tree.Add(file)
	}

	return tree, copies, nil
}

// nestedOutput returns the Src-relative output directory when Cache lives
// inside Src, so earlier output is never re-read as input.
func (w *workflow) nestedOutput(src, cache m.Path) m.Path {
	if cache == "" {
		return ""
	}

	rel, err := w.fsAdapter.RelPath(src, cache)
	if err != nil {
		return ""
	}

	slashed := filepath.ToSlash(string(rel))
	if slashed == "." || slashed == ".." || strings.HasPrefix(slashed, "../") {
		return ""
	}

	return m.Path(slashed)
}
