package util

import (
	"strings"
	"unicode/utf8"
)

// Truncate обрезает строку до n байт по границе руны и добавляет "…".
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
