package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/weave/internal/model"
)

func apply(t *testing.T, seq *m.Sequence, d m.Directive) m.Outcome {
	t.Helper()

	outcome, err := Apply(seq, d)
	require.NoError(t, err)

	return outcome
}

func assertTexts(t *testing.T, want []string, seq *m.Sequence) {
	t.Helper()

	if diff := cmp.Diff(want, seq.Texts()); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_HeadThenTail(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")

	head := directive(m.ModeHead)
	head.Body = []string{"M1"}
	apply(t, seq, head)
	assertTexts(t, []string{"M1", "S1", "S2", "S3"}, seq)

	tail := directive(m.ModeTail)
	tail.Offset = 1
	tail.Body = []string{"M2"}
	apply(t, seq, tail)
	assertTexts(t, []string{"M1", "S1", "S2", "M2", "S3"}, seq)
}

func TestApply_HeadOffsetIgnoresEarlierInsertions(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")

	first := directive(m.ModeHead)
	first.Body = []string{"A1", "A2", "A3"}
	apply(t, seq, first)

	second := directive(m.ModeHead)
	second.Offset = 2
	second.Body = []string{"B"}
	apply(t, seq, second)

	assertTexts(t, []string{"A1", "A2", "A3", "S1", "S2", "B", "S3"}, seq)
}

func TestApply_Replace(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")

	d := directive(m.ModeReplace)
	d.Search = m.Search{Expr: "S2"}
	d.Body = []string{"M1", "M2"}

	outcome := apply(t, seq, d)
	assertTexts(t, []string{"S1", "M1", "M2", "S3"}, seq)
	assert.Equal(t, m.Span{Start: 1, End: 2}, outcome.Span)
	assert.Equal(t, 1, outcome.Delta)

	_, err := Apply(seq, d)
	assert.ErrorIs(t, err, ErrAnchorNotFound)
}

func TestApply_Slice(t *testing.T) {
	t.Run("pure insertion", func(t *testing.T) {
		seq := m.NewSequence("S1", "S2", "S3")

		d := directive(m.ModeSlice)
		d.Body = []string{"M"}

		outcome := apply(t, seq, d)
		assertTexts(t, []string{"M", "S1", "S2", "S3"}, seq)
		assert.Equal(t, 1, outcome.Delta)
	})

	t.Run("excision", func(t *testing.T) {
		seq := m.NewSequence("S1", "S2", "S3", "S4", "S5")

		d := directive(m.ModeSlice)
		d.From, d.To = 0, 3
		d.Body = []string{"M1", "M2"}

		outcome := apply(t, seq, d)
		assertTexts(t, []string{"M1", "M2", "S4", "S5"}, seq)
		assert.Equal(t, 5-3+2, seq.Len())
		assert.Equal(t, -1, outcome.Delta)
	})

	t.Run("empty body deletes", func(t *testing.T) {
		seq := m.NewSequence("S1", "S2", "S3")

		d := directive(m.ModeSlice)
		d.From, d.To = 1, 2

		apply(t, seq, d)
		assertTexts(t, []string{"S1", "S3"}, seq)
	})

	t.Run("bounds use the live length", func(t *testing.T) {
		seq := m.NewSequence("S1", "S2")

		grow := directive(m.ModeTail)
		grow.Body = []string{"M1"}
		apply(t, seq, grow)

		d := directive(m.ModeSlice)
		d.From, d.To = 2, 3
		d.Body = []string{"M2"}
		apply(t, seq, d)
		assertTexts(t, []string{"S1", "S2", "M2"}, seq)
	})
}

func TestApply_PrependAppend(t *testing.T) {
	seq := m.NewSequence(`echo "a";`, `echo "b";`, `echo "a";`)

	pre := directive(m.ModePrepend)
	pre.Search = m.Search{Expr: `"a"`}
	pre.Body = []string{"P"}
	apply(t, seq, pre)

	app := directive(m.ModeAppend)
	app.Search = m.Search{Expr: `echo\s+"b";\necho`, Regex: true}
	app.Body = []string{"Q"}
	apply(t, seq, app)

	assertTexts(t, []string{"P", `echo "a";`, `echo "b";`, `echo "a";`, "Q"}, seq)
}

func TestApply_PanicFalseSkips(t *testing.T) {
	seq := m.NewSequence("S1", "S2")

	d := directive(m.ModeAppend)
	d.Search = m.Search{Expr: "missing"}
	d.Panic = false
	d.Body = []string{"M"}

	outcome := apply(t, seq, d)
	assert.Equal(t, m.OutcomeSkipped, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
	assertTexts(t, []string{"S1", "S2"}, seq)

	next := directive(m.ModeHead)
	next.Body = []string{"N"}
	apply(t, seq, next)
	assertTexts(t, []string{"N", "S1", "S2"}, seq)
}

func TestApply_PanicFalseStillFailsOnRange(t *testing.T) {
	d := directive(m.ModeSlice)
	d.From, d.To = 0, 5
	d.Panic = false

	_, err := Apply(m.NewSequence("S1"), d)
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)
}

func TestApply_OutcomeAndWovenNodes(t *testing.T) {
	seq := m.NewSequence("S1")

	d := directive(m.ModeTail)
	d.Raw = true
	d.Body = []string{"if ($x) {"}

	outcome := apply(t, seq, d)

	want := m.Outcome{
		Unit:       "u.php",
		Definition: "Mixin",
		Mode:       m.ModeTail,
		Target:     "a.php/$Ff",
		Status:     m.OutcomeApplied,
		Span:       m.Span{Start: 1, End: 1},
		Delta:      1,
	}
	assert.Equal(t, want, outcome)

	woven := seq.Nodes[1]
	assert.True(t, woven.Woven())
	assert.Equal(t, m.StyleRaw, woven.Style)
	assert.Equal(t, "Mixin", woven.Mixin)
	assert.False(t, seq.Nodes[0].Woven())
}

func TestSplice_KeepsIdentity(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")
	s3 := seq.Nodes[2]

	delta := Splice(seq, m.Span{Start: 0, End: 2}, []string{"M"}, m.StyleWrapped, "Mixin")

	assert.Equal(t, -1, delta)
	assert.Same(t, s3, seq.Nodes[1])
	assert.Equal(t, 2, s3.Origin)
}
