package domain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mouse-blink/weave/internal/adapter"
	m "github.com/mouse-blink/weave/internal/model"
)

const outputPerm = 0o644

// EmitPlan lists what one run writes below Cache.
type EmitPlan struct {
	Src   m.Path
	Cache m.Path
	// Copies are Src-relative files written unchanged (non-PHP files and
	// PHP files the front-end could not parse).
	Copies []m.Path
}

// Emitter writes a woven tree to the output directory.
type Emitter interface {
	// Emit stages every output file and promotes the staging directory into
	// plan.Cache only when all files were written.
	Emit(tree *m.TargetTree, plan EmitPlan) (int, error)
}

type emitter struct {
	fsAdapter  adapter.SourceFSAdapter
	phpAdapter adapter.PHPFileAdapter
	log        *zap.Logger
}

// NewEmitter constructs an Emitter backed by the provided filesystem and
// PHP front-end adapters. A nil log discards cleanup warnings.
func NewEmitter(fsAdapter adapter.SourceFSAdapter, phpAdapter adapter.PHPFileAdapter, log *zap.Logger) Emitter {
	if log == nil {
		log = zap.NewNop()
	}

	return &emitter{
		fsAdapter:  fsAdapter,
		phpAdapter: phpAdapter,
		log:        log,
	}
}

func (e *emitter) Emit(tree *m.TargetTree, plan EmitPlan) (int, error) {
	if plan.Cache == "" {
		return 0, fmt.Errorf("output directory is empty")
	}

	stage, err := e.fsAdapter.CreateTempDir("weave-emit-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer e.cleanupTempDir(stage)

	written := 0

	for _, file := range tree.Files {
		if err := e.writeRendered(stage, file); err != nil {
			return 0, err
		}

		written++
	}

	for _, rel := range plan.Copies {
		src := e.fsAdapter.JoinPath(string(plan.Src), string(rel))
		if err := e.fsAdapter.CopyFile(src, e.fsAdapter.JoinPath(string(stage), string(rel))); err != nil {
			return 0, fmt.Errorf("failed to copy %s: %w", rel, err)
		}

		written++
	}

	if err := e.fsAdapter.CopyDir(stage, plan.Cache); err != nil {
		return 0, fmt.Errorf("failed to promote output: %w", err)
	}

	return written, nil
}

func (e *emitter) writeRendered(stage m.Path, file *m.File) error {
	path := e.fsAdapter.JoinPath(string(stage), string(file.Path))
	if err := e.fsAdapter.WriteFile(path, e.phpAdapter.Render(file), outputPerm); err != nil {
		return fmt.Errorf("failed to write woven file %s: %w", file.Path, err)
	}

	return nil
}

// cleanupTempDir removes the staging directory. Failures are logged and do
// not fail the run.
func (e *emitter) cleanupTempDir(dir m.Path) {
	if err := e.fsAdapter.RemoveAll(dir); err != nil {
		e.log.Warn("removing staging dir", zap.String("dir", string(dir)), zap.Error(err))
	}
}
