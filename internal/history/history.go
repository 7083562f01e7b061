// Package history implements stroke-level undo/redo over layer-stack
// snapshots, with a downscaled-hash dedup so a no-op stroke (e.g. a
// zero-length tap) doesn't grow the ring buffer.
package history

import (
	"hash/fnv"

	"github.com/inkforge/brushengine/internal/layer"
)

// Entry is one undo step: the full layer-stack state snapshotted
// immediately after a stroke (or other mutating op) completed.
type Entry struct {
	Label string
	Stack *snapshotStack
	hash  uint64
}

// snapshotStack is an immutable deep copy of a layer.Stack's structure and
// pixel content, independent of later mutation to the live stack.
type snapshotStack struct {
	CssW, CssH    float64
	Dpr           float64
	ActiveLayerID string
	Layers        []snapshotLayer
}

type snapshotLayer struct {
	ID      string
	Name    string
	Opacity float64
	Blend   layer.BlendMode
	Visible bool
	Pixels  *layer.Surface
}

func snapshotOf(s *layer.Stack) *snapshotStack {
	out := &snapshotStack{
		CssW: s.CssW, CssH: s.CssH, Dpr: s.Dpr,
		ActiveLayerID: s.ActiveLayerID,
		Layers:        make([]snapshotLayer, len(s.Layers)),
	}
	for i, l := range s.Layers {
		out.Layers[i] = snapshotLayer{
			ID: l.ID, Name: l.Name, Opacity: l.Opacity,
			Blend: l.Blend, Visible: l.Visible,
			Pixels: l.Pixels.Clone(),
		}
	}
	return out
}

func (ss *snapshotStack) restoreInto(s *layer.Stack) {
	s.CssW, s.CssH, s.Dpr = ss.CssW, ss.CssH, ss.Dpr
	s.ActiveLayerID = ss.ActiveLayerID
	s.Layers = make([]*layer.Layer, len(ss.Layers))
	for i, l := range ss.Layers {
		s.Layers[i] = &layer.Layer{
			ID: l.ID, Name: l.Name, Opacity: l.Opacity,
			Blend: l.Blend, Visible: l.Visible,
			Pixels: l.Pixels.Clone(),
		}
	}
}

// dedupHash computes a cheap, order-sensitive FNV-1a hash over a
// downscaled sample of every layer's pixel content, used only to skip
// recording a history entry that is byte-identical to the previous one
// (e.g. a stroke that produced no visible stamps). It is NOT a content
// address — collisions are acceptable since a false "looks identical"
// merely skips a redundant undo step rather than corrupting state.
func dedupHash(s *layer.Stack) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, l := range s.Layers {
		h.Write([]byte(l.ID))
		h.Write([]byte{byte(l.Opacity * 255)})
		p := l.Pixels
		if p == nil {
			continue
		}
		const stride = 17 // prime stride keeps the sample from aliasing to a grid pattern
		for i := 0; i < len(p.A); i += stride {
			buf[0] = byte(p.R[i] * 255)
			buf[1] = byte(p.G[i] * 255)
			buf[2] = byte(p.B[i] * 255)
			buf[3] = byte(p.A[i] * 255)
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// History is a bounded undo/redo ring buffer over layer.Stack snapshots:
// entries accumulate up to Limit, after which the oldest entry is dropped
// to make room, and any redo tail is discarded the moment a new entry is
// pushed (pushing after undo truncates redo).
type History struct {
	Limit   int
	entries []*Entry
	cursor  int // index into entries of the "current" state; -1 if empty
}

// New creates a History capped at limit entries (a limit <= 0 is treated
// as unbounded).
func New(limit int) *History {
	return &History{Limit: limit, cursor: -1}
}

// Push snapshots s and records it as a new entry, discarding any existing
// redo tail beyond the current cursor and evicting the oldest entry if the
// buffer is at capacity. A push whose content hashes identically to the
// current top entry is skipped (dedup).
func (h *History) Push(label string, s *layer.Stack) {
	snap := snapshotOf(s)
	hash := dedupHash(s)

	if h.cursor >= 0 && h.entries[h.cursor].hash == hash {
		return
	}

	// Truncate any redo tail.
	h.entries = h.entries[:h.cursor+1]

	h.entries = append(h.entries, &Entry{Label: label, Stack: snap, hash: hash})
	h.cursor++

	if h.Limit > 0 && len(h.entries) > h.Limit {
		drop := len(h.entries) - h.Limit
		h.entries = h.entries[drop:]
		h.cursor -= drop
	}
}

// CanUndo reports whether Undo has a prior entry to restore.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo has a later entry to restore.
func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.entries)-1 }

// Undo restores the previous entry into s and returns its label. Reports
// false (no-op on s) if there is nothing to undo.
func (h *History) Undo(s *layer.Stack) (string, bool) {
	if !h.CanUndo() {
		return "", false
	}
	h.cursor--
	h.entries[h.cursor].Stack.restoreInto(s)
	return h.entries[h.cursor].Label, true
}

// Redo restores the next entry into s and returns its label. Reports false
// (no-op on s) if there is nothing to redo.
func (h *History) Redo(s *layer.Stack) (string, bool) {
	if !h.CanRedo() {
		return "", false
	}
	h.cursor++
	h.entries[h.cursor].Stack.restoreInto(s)
	return h.entries[h.cursor].Label, true
}

// Len returns the number of recorded entries.
func (h *History) Len() int { return len(h.entries) }
