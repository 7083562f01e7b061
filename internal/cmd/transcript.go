package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkforge/brushengine/internal/brushtypes"
)

// sampleRecord is one recorded pointer sample in a stroke transcript.
type sampleRecord struct {
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	TMs         float64  `json:"tMs"`
	Pressure    *float64 `json:"pressure,omitempty"`
	PointerKind string   `json:"pointerKind,omitempty"`
}

func (s sampleRecord) toPathPoint() brushtypes.PathPoint {
	kind := brushtypes.PointerUnknown
	switch s.PointerKind {
	case "pen":
		kind = brushtypes.PointerPen
	case "mouse":
		kind = brushtypes.PointerMouse
	case "touch":
		kind = brushtypes.PointerTouch
	}
	return brushtypes.PathPoint{
		X: s.X, Y: s.Y, TMs: s.TMs,
		RawPressure: s.Pressure,
		PointerKind: kind,
	}
}

// strokeRecord is one recorded stroke: the preset and color it was drawn
// with, plus the raw samples pushed to the engine during capture.
type strokeRecord struct {
	Preset   brushtypes.BrushPreset `json:"preset"`
	ColorHex string                 `json:"colorHex"`
	Seed     uint32                 `json:"seed"`
	Samples  []sampleRecord         `json:"samples"`
}

// transcript is a full recorded editing session: the canvas it was drawn
// against, and the ordered strokes to replay.
type transcript struct {
	CssW    float64        `json:"cssW"`
	CssH    float64        `json:"cssH"`
	Dpr     float64        `json:"dpr"`
	Strokes []strokeRecord `json:"strokes"`
}

func loadTranscript(path string) (*transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var t transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if t.Dpr <= 0 {
		t.Dpr = 1
	}
	if t.CssW <= 0 || t.CssH <= 0 {
		return nil, fmt.Errorf("transcript cssW/cssH must be positive, got %v/%v", t.CssW, t.CssH)
	}
	return &t, nil
}
