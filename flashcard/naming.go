package flashcard

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/factzy/binding"
	"github.com/ByLCY/factzy/errors"
)

// DefaultNameTemplate 是卡片文件名模板，index 从 1 开始。
const DefaultNameTemplate = "${subject}_flashcard_${index}_${source}.png"

// FileName 按模板生成卡片文件名，结果只含 [A-Za-z0-9._-]。
// 模板引用未知变量时返回 INVALID_INPUT。
func FileName(tmpl, subject string, index int, source string) (string, error) {
	if tmpl == "" {
		tmpl = DefaultNameTemplate
	}
	vars := map[string]string{
		"subject": subject,
		"index":   strconv.Itoa(index),
		"source":  source,
	}
	if missing := binding.Missing(tmpl, vars); len(missing) > 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "文件名模板引用了未知变量: %s", strings.Join(missing, ", "))
	}
	name := Sanitize(binding.Interpolate(tmpl, vars))
	if strings.Trim(name, "._") == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "文件名模板生成了空文件名: %s", tmpl)
	}
	return name, nil
}

// SourceTag 将主题或卡组名转为文件名片段，空格变为下划线。
func SourceTag(s string) string {
	tag := Sanitize(strings.Join(strings.Fields(s), "_"))
	if tag == "" {
		return "untitled"
	}
	return tag
}

// SourceFromPath 取图片文件名去掉扩展名后的部分作为来源标记。
func SourceFromPath(path string) string {
	base := filepath.Base(path)
	return SourceTag(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Sanitize 将 [A-Za-z0-9._-] 之外的字符替换为下划线。
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
