package domain

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mouse-blink/weave/internal/adapter"
	m "github.com/mouse-blink/weave/internal/model"
)

func unit(path m.Path, directives ...m.Directive) m.MixinUnit {
	for i := range directives {
		directives[i].Unit = path
		directives[i].Definition = fmt.Sprintf("%s#%d", path, i)
	}

	return m.MixinUnit{Path: path, Directives: directives}
}

func headOn(target m.TargetAddress, offset int, body ...string) m.Directive {
	return m.Directive{Mode: m.ModeHead, Target: target, Offset: offset, Panic: true, Body: body}
}

func tailOn(target m.TargetAddress, offset int, body ...string) m.Directive {
	return m.Directive{Mode: m.ModeTail, Target: target, Offset: offset, Panic: true, Body: body}
}

var (
	indexFn   = m.TargetAddress{File: "index.php", Function: "index"}
	indexFile = m.TargetAddress{File: "index.php"}
	method    = m.TargetAddress{File: "index.php", Class: "Controller", Function: "index"}
)

func TestDirectives_AssignsDeclarationOrder(t *testing.T) {
	units := []m.MixinUnit{
		unit("a.php", headOn(indexFn, 0, "A"), headOn(indexFn, 0, "B")),
		unit("b.php", headOn(indexFn, 0, "C")),
	}

	all := Directives(units)
	require.Len(t, all, 3)

	for i, d := range all {
		assert.Equal(t, i, d.Order)
	}

	assert.Equal(t, m.Path("b.php"), all[2].Unit)
}

func TestScheduler_AppliesInDeclarationOrderAcrossUnits(t *testing.T) {
	tree := sampleTree()
	units := []m.MixinUnit{
		unit("a.php", headOn(indexFn, 0, "M1"), headOn(method, 0, "X")),
		unit("b.php", tailOn(indexFn, 1, "M2"), headOn(indexFile, 0, "F")),
	}

	outcomes, err := NewScheduler(2, nil).Weave(context.Background(), tree, units)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	for i, o := range outcomes {
		assert.Equal(t, m.OutcomeApplied, o.Status)
		assert.Equal(t, Directives(units)[i].Definition, o.Definition)
	}

	fn, _ := Resolve(tree, indexFn)
	assertTexts(t, []string{"M1", "S1", "S2", "M2", "S3"}, fn)

	meth, _ := Resolve(tree, method)
	assertTexts(t, []string{"X", "echo 1;"}, meth)

	file, _ := Resolve(tree, indexFile)
	require.Equal(t, 4, file.Len())
	assert.Equal(t, "F", file.Nodes[0].Text)
	assert.Equal(t, "function index() {\nM1S1S2\nM2S3}", file.Texts()[1])
	assert.Equal(t, "index();", file.Texts()[3])
}

func TestScheduler_TargetNotFoundMutatesNothing(t *testing.T) {
	tree := sampleTree()
	units := []m.MixinUnit{
		unit("a.php", headOn(indexFn, 0, "M1")),
		unit("b.php", headOn(m.TargetAddress{File: "index.php", Function: "missing"}, 0, "M2")),
	}

	_, err := NewScheduler(1, nil).Weave(context.Background(), tree, units)
	require.ErrorIs(t, err, ErrTargetNotFound)

	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, m.Path("b.php"), notFound.Location.Unit)
	assert.Equal(t, "b.php#0", notFound.Location.Definition)
	assert.Contains(t, err.Error(), "b.php (b.php#0)")

	fn, _ := Resolve(tree, indexFn)
	assertTexts(t, []string{"S1", "S2", "S3"}, fn)
}

func TestScheduler_FatalAnchorAborts(t *testing.T) {
	d := m.Directive{Mode: m.ModeReplace, Target: indexFn, Search: m.Search{Expr: "nope"}, Panic: true}

	outcomes, err := NewScheduler(0, nil).Weave(context.Background(), sampleTree(), []m.MixinUnit{unit("a.php", d)})
	assert.ErrorIs(t, err, ErrAnchorNotFound)
	assert.Nil(t, outcomes)
}

func TestScheduler_SkippedDirectiveDoesNotAffectOthers(t *testing.T) {
	tree := sampleTree()
	skip := m.Directive{Mode: m.ModeReplace, Target: indexFn, Search: m.Search{Expr: "nope"}, Body: []string{"Z"}}
	units := []m.MixinUnit{unit("a.php", skip, tailOn(indexFn, 0, "T"))}

	core, logs := observer.New(zap.InfoLevel)

	outcomes, err := NewScheduler(1, zap.New(core)).Weave(context.Background(), tree, units)
	require.NoError(t, err)
	assert.Equal(t, m.OutcomeSkipped, outcomes[0].Status)
	assert.Equal(t, m.OutcomeApplied, outcomes[1].Status)
	assert.Equal(t, 1, logs.FilterMessage("directive skipped").Len())

	fn, _ := Resolve(tree, indexFn)
	assertTexts(t, []string{"S1", "S2", "S3", "T"}, fn)
}

func TestScheduler_ManyTargetsConcurrently(t *testing.T) {
	tree := &m.TargetTree{}

	var directives []m.Directive

	for i := 0; i < 32; i++ {
		path := m.Path(fmt.Sprintf("f%02d.php", i))
		tree.Add(&m.File{Path: path, Body: m.NewSequence("S1", "S2")})

		target := m.TargetAddress{File: path}
		directives = append(directives, headOn(target, 1, "H"), tailOn(target, 0, "T"))
	}

	outcomes, err := NewScheduler(4, nil).Weave(context.Background(), tree, []m.MixinUnit{unit("all.php", directives...)})
	require.NoError(t, err)
	require.Len(t, outcomes, 64)

	for i, o := range outcomes {
		assert.Equal(t, fmt.Sprintf("all.php#%d", i), o.Definition)
	}

	for _, f := range tree.Files {
		assertTexts(t, []string{"S1", "H", "S2", "T"}, f.Body)
	}
}

const nestedSrc = "<?php\nfunction index(){echo 1; echo 2;} echo 3;"

func weaveNested(t *testing.T, directives ...m.Directive) (string, []m.Outcome) {
	t.Helper()

	tree := &m.TargetTree{}
	file := parsedFile(t, "index.php", nestedSrc)
	tree.Add(file)

	outcomes, err := NewScheduler(4, nil).Weave(t.Context(), tree, []m.MixinUnit{unit("a.php", directives...)})
	require.NoError(t, err)

	return string(adapter.NewLocalPHPFileAdapter().Render(file)), outcomes
}

func TestScheduler_OuterSliceDiscardsInnerEdit(t *testing.T) {
	slice := m.Directive{Mode: m.ModeSlice, Target: indexFile, From: 0, To: 1, Panic: true, Body: []string{"echo 'gone';"}}

	out, outcomes := weaveNested(t, headOn(indexFn, 0, "echo 0;"), slice)

	assert.Equal(t, m.OutcomeSkipped, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason, "removed by a later directive")
	assert.Equal(t, m.OutcomeApplied, outcomes[1].Status)
	assert.NotContains(t, out, "echo 0;")
	assert.NotContains(t, out, "function index")
	assert.Contains(t, out, "echo 'gone';")
}

func TestScheduler_InnerEditAfterOuterRemovalIsSkipped(t *testing.T) {
	slice := m.Directive{Mode: m.ModeSlice, Target: indexFile, From: 0, To: 1, Panic: true}

	out, outcomes := weaveNested(t, slice, headOn(indexFn, 0, "echo 0;"))

	assert.Equal(t, m.OutcomeApplied, outcomes[0].Status)
	assert.Equal(t, m.OutcomeSkipped, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Reason, "removed by an earlier directive")
	assert.NotContains(t, out, "echo 0;")
	assert.Contains(t, out, "echo 3;")
}

func TestScheduler_OuterSearchSeesInnerReplacement(t *testing.T) {
	inner := m.Directive{Mode: m.ModeReplace, Target: indexFn, Search: m.Search{Expr: "echo 1;"}, Panic: true, Body: []string{"echo 'one';"}}
	outer := m.Directive{Mode: m.ModeReplace, Target: indexFile, Search: m.Search{Expr: "echo 1;"}, Body: []string{"echo 'gone';"}}

	out, outcomes := weaveNested(t, inner, outer)

	assert.Equal(t, m.OutcomeApplied, outcomes[0].Status)
	assert.Equal(t, m.OutcomeSkipped, outcomes[1].Status)
	assert.Contains(t, out, "function index()")
	assert.Contains(t, out, "echo 'one';")
	assert.NotContains(t, out, "echo 'gone';")
}

func TestScheduler_OuterSearchMatchesWovenInnerText(t *testing.T) {
	appendAfter := m.Directive{Mode: m.ModeAppend, Target: indexFile, Search: m.Search{Expr: "echo 'woven';"}, Panic: true, Body: []string{"echo 'after';"}}

	out, outcomes := weaveNested(t, tailOn(indexFn, 0, "echo 'woven';"), appendAfter)

	assert.Equal(t, m.OutcomeApplied, outcomes[1].Status)
	assert.Equal(t, m.Span{Start: 1, End: 1}, outcomes[1].Span)
	assert.Less(t, strings.Index(out, "echo 'woven';"), strings.Index(out, "echo 'after';"))
	assert.Less(t, strings.Index(out, "echo 'after';"), strings.Index(out, "echo 3;"))
}

func TestScheduler_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScheduler(1, nil).Weave(ctx, sampleTree(), []m.MixinUnit{unit("a.php", headOn(indexFn, 0, "M"))})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_NoDirectives(t *testing.T) {
	outcomes, err := NewScheduler(1, nil).Weave(context.Background(), sampleTree(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
