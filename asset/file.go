package asset

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

// sniffLen matches the window http.DetectContentType looks at.
const sniffLen = 512

// IsVector 判断上传文件是否为 SVG：扩展名为 .svg，或内容以 XML/文本开头且包含 <svg 根元素。
// 位图等二进制内容即便扩展名为 .svg 也会被拒绝。
func IsVector(name string, data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	ct := http.DetectContentType(head)
	if !strings.HasPrefix(ct, "text/") {
		return false
	}
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return true
	}
	return bytes.Contains(head, []byte("<svg"))
}

// DisplayName 返回上传文件去掉目录与扩展名后的名称。
func DisplayName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
