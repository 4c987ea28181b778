package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/weave/internal/model"
)

func directive(mode m.Mode) m.Directive {
	return m.Directive{
		Location: m.Location{Unit: "u.php", Definition: "Mixin"},
		Mode:     mode,
		Target:   m.TargetAddress{File: "a.php", Function: "f"},
		Panic:    true,
	}
}

func TestLocate_HeadTail(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")

	tests := []struct {
		mode   m.Mode
		offset int
		want   m.Span
	}{
		{m.ModeHead, 0, m.Span{Start: 0, End: 0}},
		{m.ModeHead, 2, m.Span{Start: 2, End: 2}},
		{m.ModeHead, 3, m.Span{Start: 3, End: 3}},
		{m.ModeTail, 0, m.Span{Start: 3, End: 3}},
		{m.ModeTail, 1, m.Span{Start: 2, End: 2}},
		{m.ModeTail, 3, m.Span{Start: 0, End: 0}},
	}

	for _, tt := range tests {
		d := directive(tt.mode)
		d.Offset = tt.offset

		got, err := Locate(seq, d)
		require.NoError(t, err, "%s offset=%d", tt.mode, tt.offset)
		assert.Equal(t, tt.want, got, "%s offset=%d", tt.mode, tt.offset)
	}
}

func TestLocate_OffsetBeyondOriginals(t *testing.T) {
	seq := m.NewSequence("S1", "S2")

	for _, mode := range []m.Mode{m.ModeHead, m.ModeTail} {
		d := directive(mode)
		d.Offset = 3

		_, err := Locate(seq, d)
		assert.ErrorIs(t, err, ErrRangeOutOfBounds, mode)
	}
}

func TestLocate_OffsetsCountOriginalStatements(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")
	Splice(seq, m.Span{Start: 0, End: 0}, []string{"W1", "W2"}, m.StyleWrapped, "Mixin")
	Splice(seq, m.Span{Start: 5, End: 5}, []string{"W3"}, m.StyleWrapped, "Mixin")
	require.Equal(t, []string{"W1", "W2", "S1", "S2", "S3", "W3"}, seq.Texts())

	head := directive(m.ModeHead)
	head.Offset = 2

	got, err := Locate(seq, head)
	require.NoError(t, err)
	assert.Equal(t, m.Span{Start: 4, End: 4}, got, "after S2")

	tail := directive(m.ModeTail)
	tail.Offset = 1

	got, err = Locate(seq, tail)
	require.NoError(t, err)
	assert.Equal(t, m.Span{Start: 4, End: 4}, got, "before S3")

	tail.Offset = 0

	got, err = Locate(seq, tail)
	require.NoError(t, err)
	assert.Equal(t, m.Span{Start: 6, End: 6}, got, "absolute end")
}

func TestLocate_Slice(t *testing.T) {
	seq := m.NewSequence("S1", "S2", "S3")

	d := directive(m.ModeSlice)
	d.From, d.To = 1, 3

	got, err := Locate(seq, d)
	require.NoError(t, err)
	assert.Equal(t, m.Span{Start: 1, End: 3}, got)

	d.From, d.To = 2, 4

	_, err = Locate(seq, d)
	require.ErrorIs(t, err, ErrRangeOutOfBounds)

	var rangeErr *RangeOutOfBoundsError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 3, rangeErr.Len)
	assert.Equal(t, 4, rangeErr.To)
	assert.Contains(t, err.Error(), "u.php (Mixin)")
}

func TestLocate_Search(t *testing.T) {
	seq := m.NewSequence("$a = 1;", "echo $a;", "echo $b;", "return;")

	tests := []struct {
		mode m.Mode
		want m.Span
	}{
		{m.ModePrepend, m.Span{Start: 1, End: 1}},
		{m.ModeAppend, m.Span{Start: 3, End: 3}},
		{m.ModeReplace, m.Span{Start: 1, End: 3}},
	}

	for _, tt := range tests {
		d := directive(tt.mode)
		d.Search = m.Search{Expr: `echo \$a;\necho`, Regex: true}

		got, err := Locate(seq, d)
		require.NoError(t, err, tt.mode)
		assert.Equal(t, tt.want, got, tt.mode)
	}
}

func TestLocate_AnchorNotFound(t *testing.T) {
	seq := m.NewSequence("S1")

	d := directive(m.ModeReplace)
	d.Search = m.Search{Expr: "missing"}

	_, err := Locate(seq, d)
	require.ErrorIs(t, err, ErrAnchorNotFound)

	var anchorErr *AnchorNotFoundError
	require.ErrorAs(t, err, &anchorErr)
	assert.Equal(t, d.Target, anchorErr.Address)
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), "a.php/$Ff")
}

func TestLocate_UnknownMode(t *testing.T) {
	_, err := Locate(m.NewSequence("S1"), directive("MIDDLE"))
	assert.ErrorIs(t, err, ErrDirectiveSyntax)
}
