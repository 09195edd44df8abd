// Package binding 把文字行中的 ${path} 占位符替换为数据文件中的值，用于批量生成同款队标。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 替换 text 中能解析的占位符，无法解析的保持原样。
func Interpolate(text string, data any) string {
	out, _ := Bind(text, data)
	return out
}

// Bind 与 Interpolate 相同，另外按出现顺序返回未能解析的路径。
// 路径写法为 team.name 或 players[0].name；data 通常来自 JSON 解码。
func Bind(text string, data any) (string, []string) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			missing = append(missing, path)
			return match
		}
		val, ok := Lookup(data, path)
		if !ok {
			missing = append(missing, path)
			return match
		}
		return format(val)
	})
	return out, missing
}

// Placeholders lists the paths referenced by text.
func Placeholders(text string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Lookup 沿 path 在 data 中逐级取值。
func Lookup(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	current := data
	for _, segment := range strings.Split(path, ".") {
		key, indexes, err := splitSegment(segment)
		if err != nil {
			return nil, false
		}
		if key != "" {
			var ok bool
			if current, ok = field(current, key); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			var ok bool
			if current, ok = element(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// splitSegment 把 players[0][1] 拆成 players 与 [0 1]。
func splitSegment(segment string) (string, []int, error) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil, nil
	}
	key, rest := segment[:i], segment[i:]
	var indexes []int
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end == -1 {
			return "", nil, fmt.Errorf("路径片段 %q 格式错误", segment)
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, fmt.Errorf("路径片段 %q 下标无效: %w", segment, err)
		}
		indexes = append(indexes, n)
		rest = rest[end+1:]
	}
	return key, indexes, nil
}

func field(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case map[string]string:
		v, ok := c[key]
		return v, ok
	}
	return nil, false
}

func element(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	}
	return nil, false
}

// format 让 JSON 数字 7 输出为 "7" 而不是 "7e+00"。
func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
