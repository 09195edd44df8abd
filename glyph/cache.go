// Package glyph 提供按字体族缓存的字形轮廓来源（Glyph Outline Cache）。
//
// 缓存只增不减：某个字体族加载成功后，后续读取无需加锁竞争；同一字体族的并发请求只会触发一次加载。
package glyph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/singleflight"

	"github.com/ByLCY/shirtgen/fonts"
)

// ErrUnavailable 表示字体族无法加载；调用方应跳过该行的渲染而不是中止。
var ErrUnavailable = errors.New("glyph: 字体不可用")

// State 是预加载状态。
type State int32

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// Source 是已加载的字形来源。
type Source struct {
	// Family 是目录中的字体族名（缓存键）。
	Family string
	// FontName 取自字体 name 表，可能与 Family 不同。
	FontName   string
	UnitsPerEm int
	Face       *canvas.FontFamily
}

// Options configures a Cache.
type Options struct {
	Catalog fonts.Catalog
	Loader  fonts.Loader
	Logger  logrus.FieldLogger
}

// Cache 按字体族名缓存 Source。零值不可用，请使用 New。
type Cache struct {
	catalog fonts.Catalog
	loader  fonts.Loader
	log     logrus.FieldLogger

	mu      sync.RWMutex
	sources map[string]*Source

	group singleflight.Group
	state atomic.Int32
	warm  sync.Once
}

// New creates a cache. Missing options fall back to the default catalog and loader.
func New(opts Options) *Cache {
	c := &Cache{
		catalog: opts.Catalog,
		loader:  opts.Loader,
		log:     opts.Logger,
		sources: map[string]*Source{},
	}
	if c.catalog == nil {
		c.catalog = fonts.Default
	}
	if c.loader == nil {
		c.loader = &fonts.SourceLoader{}
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.state.Store(int32(Loading))
	return c
}

// Catalog returns the catalog this cache serves.
func (c *Cache) Catalog() fonts.Catalog { return c.catalog }

// State returns the preload state.
func (c *Cache) State() State { return State(c.state.Load()) }

// Loading 为 true 时界面应禁用字体选择。
func (c *Cache) Loading() bool { return c.State() == Loading }

// Cached returns the source for family if it finished loading.
func (c *Cache) Cached(family string) (*Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.sources[family]
	return src, ok
}

// Load 返回 family 对应的字形来源。首次请求会从目录加载并缓存；失败会记录日志并返回 ErrUnavailable。
func (c *Cache) Load(ctx context.Context, family string) (*Source, error) {
	if src, ok := c.Cached(family); ok {
		return src, nil
	}
	// 共享加载不随首个调用方取消，其余等待者仍可拿到结果。
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(family, func() (any, error) {
		if src, ok := c.Cached(family); ok {
			return src, nil
		}
		src, err := c.fetch(shared, family)
		if err != nil {
			c.log.WithField("family", family).WithError(err).Error("加载字体失败")
			return nil, err
		}
		c.mu.Lock()
		c.sources[family] = src
		c.mu.Unlock()
		return src, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, family, res.Err)
		}
		return res.Val.(*Source), nil
	}
}

func (c *Cache) fetch(ctx context.Context, family string) (*Source, error) {
	entry, ok := c.catalog.Lookup(family)
	if !ok {
		return nil, fmt.Errorf("字体目录中没有 %q", family)
	}
	data, err := c.loader.Load(ctx, entry)
	if err != nil {
		return nil, err
	}
	return newSource(family, data)
}

func newSource(family string, data []byte) (*Source, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", family, err)
	}
	name, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		name = family
	}
	face := canvas.NewFontFamily(family)
	if err := face.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("载入字体 %s 失败: %w", family, err)
	}
	return &Source{
		Family:     family,
		FontName:   name,
		UnitsPerEm: int(f.UnitsPerEm()),
		Face:       face,
	}, nil
}

// Warm 依次预加载目录中的全部字体族，完成后状态切换为 Ready。单个字体失败不会中断预热。
// 只有第一次调用会执行预热。
func (c *Cache) Warm(ctx context.Context) {
	c.warm.Do(func() {
		c.state.Store(int32(Loading))
		for _, e := range c.catalog {
			if ctx.Err() != nil {
				break
			}
			if _, err := c.Load(ctx, e.Name); err != nil {
				c.log.WithField("family", e.Name).Warn("预加载字体失败")
			}
		}
		c.state.Store(int32(Ready))
	})
}

// Close 释放已缓存的字体来源。
func (c *Cache) Close() {
	c.mu.Lock()
	c.sources = map[string]*Source{}
	c.mu.Unlock()
}
