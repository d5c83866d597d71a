package menu

import (
	"fmt"
	"strings"
)

// Line builds one SwiftBar menu line: optional "--" nesting prefix, the text,
// then "| key=value" parameters. Parameters render in the order they were
// added so output stays byte-stable.
type Line struct {
	text   string
	depth  int
	params []string
}

func NewLine(text string) *Line {
	return &Line{text: text}
}

// Nest sets the dropdown depth: 0 top level, 1 submenu, 2 sub-submenu.
func (l *Line) Nest(depth int) *Line {
	if depth < 0 {
		depth = 0
	}
	l.depth = depth
	return l
}

func (l *Line) Size(n int) *Line {
	return l.param(fmt.Sprintf("size=%d", n))
}

func (l *Line) Color(c string) *Line {
	return l.param("color=" + c)
}

func (l *Line) Font(name string) *Line {
	return l.param("font=" + name)
}

func (l *Line) Href(url string) *Line {
	return l.param("href=" + url)
}

func (l *Line) Refresh() *Line {
	return l.param("refresh=true")
}

func (l *Line) param(p string) *Line {
	l.params = append(l.params, p)
	return l
}

func (l *Line) String() string {
	var b strings.Builder
	if l.depth > 0 {
		b.WriteString(strings.Repeat("--", l.depth))
		b.WriteString("  ")
	}
	b.WriteString(l.text)
	if len(l.params) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(l.params, " "))
	}
	return b.String()
}

const separator = "---"
