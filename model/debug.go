package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DebugReport 在快照之外附带一份便于人工比对的摘要。
type DebugReport struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Lines       []DebugLine  `json:"lines"`
	Assets      []DebugAsset `json:"assets"`
	LayoutBytes int          `json:"layoutBytes"`
	Snapshot    *Snapshot    `json:"snapshot"`
}

// DebugLine summarizes one text line.
type DebugLine struct {
	ID     string     `json:"id"`
	Text   string     `json:"text"`
	Font   string     `json:"font"`
	Anchor [2]float64 `json:"anchor"`
}

// DebugAsset summarizes one asset; Colors 合并 fill 与 stroke。
type DebugAsset struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// NewDebugReport builds the report for snap at time now.
func NewDebugReport(snap *Snapshot, now time.Time) DebugReport {
	r := DebugReport{
		GeneratedAt: now.UTC(),
		Lines:       []DebugLine{},
		Assets:      []DebugAsset{},
		LayoutBytes: len(snap.SceneLayout),
		Snapshot:    snap,
	}
	for _, l := range snap.TextLines {
		r.Lines = append(r.Lines, DebugLine{
			ID:     l.ID,
			Text:   l.Text,
			Font:   fmt.Sprintf("%s %gpt", l.FontFamily, l.FontSizePt),
			Anchor: [2]float64{l.AnchorX, l.AnchorY},
		})
	}
	for _, a := range snap.SVGData {
		colors := append(append([]string{}, a.Colors.Fill...), a.Colors.Stroke...)
		r.Assets = append(r.Assets, DebugAsset{ID: a.ID, Name: a.Name, Colors: colors})
	}
	return r
}

// WriteDebugJSON 将快照连同摘要输出为缩进 JSON，便于调试或比对模板内容。
func WriteDebugJSON(snap *Snapshot, path string) error {
	if snap == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建调试文件失败: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDebugReport(snap, time.Now())); err != nil {
		f.Close()
		return fmt.Errorf("编码调试 JSON 失败: %w", err)
	}
	return f.Close()
}
