package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func debugSnapshot() *Snapshot {
	return &Snapshot{
		SceneLayout: json.RawMessage(`{"objects":[]}`),
		TextLines: []TextLine{{
			ID: "1", Text: "HAWKS", FontFamily: "Go Bold", FontSizePt: 80, AnchorX: 250, AnchorY: 240,
		}},
		SVGData: []AssetRecord{{
			ID: "a1", Name: "Crest",
			Colors: Colors{Fill: []string{"#ff0000"}, Stroke: []string{"#000000"}},
		}},
	}
}

func TestNewDebugReport(t *testing.T) {
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	r := NewDebugReport(debugSnapshot(), now)
	if !r.GeneratedAt.Equal(now) || r.GeneratedAt.Location() != time.UTC {
		t.Fatalf("timestamp should be UTC, got %v", r.GeneratedAt)
	}
	if len(r.Lines) != 1 || r.Lines[0].Font != "Go Bold 80pt" || r.Lines[0].Anchor != [2]float64{250, 240} {
		t.Fatalf("line summary mismatch: %+v", r.Lines)
	}
	if len(r.Assets) != 1 || len(r.Assets[0].Colors) != 2 || r.Assets[0].Colors[1] != "#000000" {
		t.Fatalf("asset summary mismatch: %+v", r.Assets)
	}
	if r.LayoutBytes != len(`{"objects":[]}`) {
		t.Fatalf("layout size mismatch: %d", r.LayoutBytes)
	}
}

func TestWriteDebugJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.json")
	if err := WriteDebugJSON(debugSnapshot(), path); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var back DebugReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if back.Snapshot == nil || back.Snapshot.TextLines[0].Text != "HAWKS" || back.Assets[0].Name != "Crest" {
		t.Fatalf("report mismatch: %+v", back)
	}
	if err := WriteDebugJSON(nil, filepath.Join(t.TempDir(), "none.json")); err != nil {
		t.Fatalf("nil snapshot should be a no-op: %v", err)
	}
}
