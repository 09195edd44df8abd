package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/ByLCY/shirtgen/dsl"
	"github.com/ByLCY/shirtgen/engine"
	"github.com/ByLCY/shirtgen/glyph"
	"github.com/ByLCY/shirtgen/model"
	canvasrenderer "github.com/ByLCY/shirtgen/renderer/canvas"
	"github.com/ByLCY/shirtgen/store"
)

type config struct {
	input   string
	output  string
	data    string
	width   float64
	minify  bool
	pngSize int
	db      string
	save    bool
	tags    string
	load    string
	list    bool
	debug   string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.input, "in", "", ".logo 文件路径")
	flag.StringVar(&cfg.output, "out", "", "导出路径（.svg/.png/.pdf）；为目录时使用默认文件名")
	flag.StringVar(&cfg.data, "data", "", "绑定到文字占位符的 JSON 数据；以 @ 开头表示文件")
	flag.Float64Var(&cfg.width, "width", 0, "画布边长，覆盖文件中的 canvas 尺寸")
	flag.BoolVar(&cfg.minify, "minify", false, "压缩 SVG 输出")
	flag.IntVar(&cfg.pngSize, "png-size", 0, "PNG 输出边长（像素）")
	flag.StringVar(&cfg.db, "db", "", "模板库路径（bbolt）；为空时使用内存库")
	flag.BoolVar(&cfg.save, "save", false, "将组合保存为模板")
	flag.StringVar(&cfg.tags, "tags", "", "保存模板时的标签，逗号分隔")
	flag.StringVar(&cfg.load, "load", "", "按 ID 加载模板，替代 -in")
	flag.BoolVar(&cfg.list, "list", false, "列出模板库中的模板")
	flag.StringVar(&cfg.debug, "debug", "", "快照调试 JSON 输出路径")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	log.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(context.Background(), cfg, log.StandardLogger()); err != nil {
		log.Fatal(err)
	}
}

// run 串联模板库、DSL 构建、引擎装载与导出。
func run(ctx context.Context, cfg config, logger log.FieldLogger) error {
	templates, closeStore, err := openStore(cfg.db)
	if err != nil {
		return err
	}
	defer closeStore()

	glyphs := glyph.New(glyph.Options{Logger: logger})
	defer glyphs.Close()
	eng := engine.New(engine.Options{Glyphs: glyphs, Store: templates, Logger: logger})
	defer eng.Dispose()

	if cfg.list {
		return listTemplates(ctx, eng)
	}
	if cfg.input == "" && cfg.load == "" {
		return fmt.Errorf("需要 -in 或 -load 参数")
	}

	glyphs.Warm(ctx)
	width := cfg.width
	if width <= 0 {
		width = model.DefaultCanvasWidth
	}
	if err := eng.Attach(ctx, width); err != nil {
		return err
	}

	title := ""
	var tags []string
	if cfg.load != "" {
		if err := eng.LoadTemplate(ctx, cfg.load); err != nil {
			return err
		}
	} else {
		doc, err := buildDocument(cfg, glyphs, logger)
		if err != nil {
			return err
		}
		dir := filepath.Dir(cfg.input)
		read := func(src string) ([]byte, error) {
			if !filepath.IsAbs(src) {
				src = filepath.Join(dir, src)
			}
			return os.ReadFile(src)
		}
		if err := eng.LoadDocument(ctx, doc, read); err != nil {
			return err
		}
		title, tags = doc.Name, doc.Tags
	}
	if cfg.tags != "" {
		tags = splitTags(cfg.tags)
	}

	if cfg.save {
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(cfg.input), filepath.Ext(cfg.input))
		}
		rec, err := eng.SaveTemplate(ctx, title, tags)
		if err != nil {
			return err
		}
		fmt.Printf("已保存模板：%s (%s)\n", rec.Name, rec.ID)
	}

	if cfg.debug != "" {
		if err := writeDebug(eng, cfg.debug); err != nil {
			return err
		}
	}
	if cfg.output != "" {
		path, err := export(eng, cfg, title, tags)
		if err != nil {
			return err
		}
		fmt.Printf("已导出：%s\n", path)
	}
	return nil
}

func openStore(path string) (store.Store, func(), error) {
	if path == "" {
		return store.NewMemory(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("创建模板库目录失败: %w", err)
	}
	db, err := store.OpenBolt(path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

func buildDocument(cfg config, glyphs *glyph.Cache, logger log.FieldLogger) (*model.Document, error) {
	data, err := readData(cfg.data)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(cfg.input)
	if err != nil {
		return nil, fmt.Errorf("无法打开 .logo 文件 %s: %w", cfg.input, err)
	}
	defer file.Close()

	ast, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析 .logo 失败: %w", err)
	}
	doc, err := model.Build(ast, data, model.BuildOptions{
		Width:  cfg.width,
		Fonts:  glyphs.Catalog().Names(),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("构建组合失败: %w", err)
	}
	return doc, nil
}

func readData(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("读取 data 文件失败: %w", err)
		}
		raw = b
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

func listTemplates(ctx context.Context, eng *engine.Engine) error {
	records, tags, err := eng.Templates(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Name, strings.Join(r.Tags, ","))
	}
	if len(tags) > 0 {
		fmt.Printf("标签: %s\n", strings.Join(tags, ", "))
	}
	return nil
}

func export(eng *engine.Engine, cfg config, title string, tags []string) (string, error) {
	path := cfg.output
	ext := filepath.Ext(path)
	info, statErr := os.Stat(path)
	isDir := statErr == nil && info.IsDir()
	if isDir || ext == "" {
		ext = ".svg"
	}
	format, err := canvasrenderer.ForExtension(ext)
	if err != nil {
		return "", err
	}
	r := canvasrenderer.NewRenderer(canvasrenderer.Options{
		Format:  format,
		Minify:  cfg.minify,
		PNGSize: cfg.pngSize,
		Meta:    canvasrenderer.Meta{Title: title, Keywords: tags, Creator: "shirtgen"},
	})
	data, name, err := eng.Export(r)
	if err != nil {
		return "", err
	}
	if isDir {
		path = filepath.Join(path, name)
	} else if filepath.Ext(path) == "" {
		path += ext
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入输出文件失败: %w", err)
	}
	return path, nil
}

func writeDebug(eng *engine.Engine, path string) error {
	snap, err := eng.Snapshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := model.WriteDebugJSON(snap, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
