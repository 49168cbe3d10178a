package util

import (
	"strings"
	"unicode/utf8"
)

// PtrInt 用于将 int 转换为 *int
func PtrInt(i int) *int {
	return &i
}

// FirstNonEmpty 返回第一个去掉空白后非空的字符串
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Truncate 按字节截断，回退到字符边界，不会切开多字节字符
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
