package vectorize

import (
	"strings"

	"github.com/ByLCY/shirtgen/model"
)

// ApplyLetterSpacing 在每两个字符之间插入空格以近似字距：Small 插入一个，Large 插入两个。
// 这是刻意保留的简化做法，并不调整真实的 tracking；结果只取决于原文与档位，重复选择同一档位结果不变。
func ApplyLetterSpacing(text string, spacing model.LetterSpacing) string {
	var spacer string
	switch spacing {
	case model.SpacingSmall:
		spacer = " "
	case model.SpacingLarge:
		spacer = "  "
	default:
		return text
	}
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, spacer)
}
