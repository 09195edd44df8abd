package renderer

import (
	"strings"

	"github.com/ByLCY/shirtgen/scene"
)

// Renderer 将实时场景输出为最终文件，例如 SVG、PNG 或 PDF。
// Render 返回生成的二进制数据以及可能的错误；Ext 返回不带点的文件扩展名。
type Renderer interface {
	Render(s *scene.Scene) ([]byte, error)
	Ext() string
}

const fileSuffix = "_ShirtGen"

// FileName 返回导出文件名：<第一行文字>_ShirtGen.<ext>，第一行为空时使用 logo。
func FileName(firstLine, ext string) string {
	base := strings.TrimSpace(firstLine)
	if base == "" {
		base = "logo"
	}
	base = strings.NewReplacer("/", "_", "\\", "_").Replace(base)
	return base + fileSuffix + "." + strings.TrimPrefix(ext, ".")
}
