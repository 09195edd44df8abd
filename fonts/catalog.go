package fonts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// Entry 是字体目录中的一项。Src 可以是 "builtin:<name>"、文件路径或 http(s) URL。
type Entry struct {
	Name string
	Src  string
}

// Catalog 是固定的、预置的字体目录。
type Catalog []Entry

// Lookup 按字体族名查找目录项。
func (c Catalog) Lookup(name string) (Entry, bool) {
	for _, e := range c {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the family names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for _, e := range c {
		out = append(out, e.Name)
	}
	return out
}

// Default 是内置目录，第一项为新建文字行的默认字体。
var Default = Catalog{
	{Name: "Go Bold", Src: "builtin:gobold"},
	{Name: "Go", Src: "builtin:goregular"},
	{Name: "Go Medium", Src: "builtin:gomedium"},
	{Name: "Go Italic", Src: "builtin:goitalic"},
	{Name: "Go Bold Italic", Src: "builtin:gobolditalic"},
	{Name: "Go Mono", Src: "builtin:gomono"},
	{Name: "Go Mono Bold", Src: "builtin:gomonobold"},
	{Name: "Go Smallcaps", Src: "builtin:gosmallcaps"},
	{Name: "Latin Modern Roman", Src: "builtin:lmroman10regular"},
	{Name: "Latin Modern Roman Bold", Src: "builtin:lmroman10bold"},
}

var builtin = map[string][]byte{
	"gobold":           gobold.TTF,
	"goregular":        goregular.TTF,
	"gomedium":         gomedium.TTF,
	"goitalic":         goitalic.TTF,
	"gobolditalic":     gobolditalic.TTF,
	"gomono":           gomono.TTF,
	"gomonobold":       gomonobold.TTF,
	"gosmallcaps":      gosmallcaps.TTF,
	"lmroman10regular": lmroman10regular.TTF,
	"lmroman10bold":    lmroman10bold.TTF,
}

// Loader 负责把目录项解析为字体字节。
type Loader interface {
	Load(ctx context.Context, e Entry) ([]byte, error)
}

// SourceLoader 按 Src 前缀解析字体：builtin:、http(s):// 或相对 BaseDir 的路径。
type SourceLoader struct {
	BaseDir string
	Client  *http.Client
}

var _ Loader = (*SourceLoader)(nil)

// Load implements Loader.
func (l *SourceLoader) Load(ctx context.Context, e Entry) ([]byte, error) {
	src := e.Src
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", e.Name)
	}
	switch {
	case strings.HasPrefix(src, "builtin:"), strings.HasPrefix(src, "built-in:"):
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置字体资源 builtin:%s", name)
		}
		return data, nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.download(ctx, src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if l.BaseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
		}
		path = filepath.Join(l.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

func (l *SourceLoader) download(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载字体 %s 失败: %w", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载字体 %s 失败: status %s", url, res.Status)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("读取字体响应失败: %w", err)
	}
	return data, nil
}
