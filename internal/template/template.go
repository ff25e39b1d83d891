// Package template renders the user's copy text, substituting {variables}
// such as {link} or {world}. A backslash escapes '{', '}' and itself.
package template

import (
	"strconv"
	"strings"

	"github.com/scout-helper/tracker/pkg/core"
)

// Kind tells literal text from a variable reference.
type Kind int

const (
	Literal Kind = iota
	Variable
)

// Token is a run of literal text or the name of a variable.
type Token struct {
	Kind Kind
	Text string
}

// Tokenize splits s into literal and variable tokens in a single pass.
// An unterminated variable is kept as literal text, and a '}' outside a
// variable is literal too.
func Tokenize(s string) []Token {
	var (
		tokens []Token
		lit    strings.Builder
		name   strings.Builder
		inVar  bool
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, Token{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}
	current := func() *strings.Builder {
		if inVar {
			return &name
		}
		return &lit
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isEscapable(s[i+1]):
			current().WriteByte(s[i+1])
			i++
		case c == '{':
			if inVar {
				lit.WriteByte('{')
				lit.WriteString(name.String())
				name.Reset()
			}
			inVar = true
		case c == '}' && inVar:
			flush()
			tokens = append(tokens, Token{Kind: Variable, Text: name.String()})
			name.Reset()
			inVar = false
		default:
			current().WriteByte(c)
		}
	}

	if inVar {
		lit.WriteByte('{')
		lit.WriteString(name.String())
	}
	flush()
	return tokens
}

func isEscapable(c byte) bool {
	return c == '\\' || c == '{' || c == '}'
}

// Vars maps variable names to their values.
type Vars map[string]string

// Render joins the tokens, replacing known variables. Unknown variables are
// written back with their braces.
func Render(tokens []Token, vars Vars) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.Kind == Literal {
			b.WriteString(t.Text)
			continue
		}
		if v, ok := vars[t.Text]; ok {
			b.WriteString(v)
			continue
		}
		b.WriteByte('{')
		b.WriteString(t.Text)
		b.WriteByte('}')
	}
	return b.String()
}

// Format tokenizes and renders tmpl in one go.
func Format(tmpl string, vars Vars) string {
	return Render(Tokenize(tmpl), vars)
}

// Train describes the train a copy text is rendered for.
type Train struct {
	Count        int
	HighestPatch core.Patch
	Link         string
	Tracker      string
	World        string
}

// VarsFor returns the variables available to copy templates.
func VarsFor(t Train) Vars {
	return Vars{
		"#":           strconv.Itoa(t.Count),
		"#max":        strconv.FormatUint(uint64(t.HighestPatch.MaxMarks()), 10),
		"link":        t.Link,
		"patch":       t.HighestPatch.String(),
		"patch-emote": t.HighestPatch.Emote(),
		"tracker":     t.Tracker,
		"world":       t.World,
	}
}
