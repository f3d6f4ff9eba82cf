package bind

import "strings"

// EscapeLaTeX escapes the characters LaTeX reserves so arbitrary content can
// be substituted into a template body. Pure transform, no I/O.
func EscapeLaTeX(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\textbackslash{}`)
		case '&', '%', '$', '#', '_', '{', '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '~':
			b.WriteString(`\textasciitilde{}`)
		case '^':
			b.WriteString(`\textasciicircum{}`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeURL escapes only the characters that break a \href url argument.
// The visible label still goes through EscapeLaTeX.
func escapeURL(s string) string {
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "#", `\#`)
	return s
}
