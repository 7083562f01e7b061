package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
)

func freshStack() *layer.Stack {
	return layer.NewStack(8, 8, 1)
}

func TestPushThenUndoRestoresPriorState(t *testing.T) {
	h := New(0)
	s := freshStack()
	h.Push("initial", s)

	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 1, A: 1})
	h.Push("stroke 1", s)

	require.True(t, h.CanUndo(), "expected CanUndo after two pushes")
	s.Layers[0].Pixels.Clear(colormath.RGBA{}) // simulate a live mutation we're about to discard
	label, ok := h.Undo(s)
	require.True(t, ok)
	assert.Equal(t, "initial", label)
	assert.Zero(t, s.Layers[0].Pixels.At(0, 0).A, "expected undo to restore the transparent initial state")
}

func TestRedoReappliesUndoneEntry(t *testing.T) {
	h := New(0)
	s := freshStack()
	h.Push("initial", s)
	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 1, A: 1})
	h.Push("stroke 1", s)

	h.Undo(s)
	require.True(t, h.CanRedo(), "expected CanRedo after undo")
	label, ok := h.Redo(s)
	require.True(t, ok)
	assert.Equal(t, "stroke 1", label)
	assert.Equal(t, 1.0, s.Layers[0].Pixels.At(0, 0).A, "expected redo to restore the opaque stroke-1 state")
}

func TestPushAfterUndoTruncatesRedoTail(t *testing.T) {
	h := New(0)
	s := freshStack()
	// Each push changes the pixels so the dedup hash doesn't skip it.
	h.Push("a", s)
	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 0.1, A: 1})
	h.Push("b", s)
	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 0.2, A: 1})
	h.Push("c", s)

	h.Undo(s)
	h.Undo(s)
	require.True(t, h.CanRedo(), "expected redo available before new push")

	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 0.3, A: 1})
	h.Push("d", s)
	assert.False(t, h.CanRedo(), "expected pushing a new entry to discard the redo tail")
}

func TestLimitEvictsOldestEntry(t *testing.T) {
	h := New(2)
	s := freshStack()
	h.Push("a", s)
	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 0.1, A: 1})
	h.Push("b", s)
	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 0.2, A: 1})
	h.Push("c", s)

	require.Equal(t, 2, h.Len(), "expected ring buffer capped at 2 entries")
	if h.CanUndo() {
		// after eviction, cursor sits at the newest entry so undo should
		// still reach the remaining older one
		label, ok := h.Undo(s)
		require.True(t, ok)
		assert.Equal(t, "b", label, "expected eviction to keep 'b' as the prior entry")
	}
}

func TestUndoNoopWhenEmpty(t *testing.T) {
	h := New(0)
	s := freshStack()
	_, ok := h.Undo(s)
	assert.False(t, ok, "expected undo on empty history to report false")
}

func TestPushSkipsIdenticalConsecutiveState(t *testing.T) {
	h := New(0)
	s := freshStack()
	h.Push("a", s)
	h.Push("a-again-identical", s)
	assert.Equal(t, 1, h.Len(), "expected dedup to skip an identical consecutive push")
}

func TestSqliteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSqliteStore(dir + "/history.db")
	require.NoError(t, err)
	defer store.Close()

	s := freshStack()
	s.Layers[0].Pixels.Clear(colormath.RGBA{R: 0.5, G: 0.25, B: 0.1, A: 1})

	require.NoError(t, store.WriteSnapshot(1, "stroke 1", s))
	require.NoError(t, store.Flush())

	got, label, err := store.ReadSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, "stroke 1", label)
	require.Len(t, got.Layers, len(s.Layers))

	c := got.Layers[0].Pixels.At(0, 0)
	assert.InDelta(t, 0.5, c.R, 0.01, "expected round-tripped red channel ~0.5")
}
