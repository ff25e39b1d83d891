package template

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scout-helper/tracker/pkg/core"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Token
	}{
		{"empty", "", nil},
		{"plain", "hello", []Token{{Literal, "hello"}}},
		{"variable", "{link}", []Token{{Variable, "link"}}},
		{"mixed", "a {b} c", []Token{{Literal, "a "}, {Variable, "b"}, {Literal, " c"}}},
		{"adjacent", "{a}{b}", []Token{{Variable, "a"}, {Variable, "b"}}},
		{"escaped braces", `\{foo\}`, []Token{{Literal, "{foo}"}}},
		{"escaped backslash", `a\\b`, []Token{{Literal, `a\b`}}},
		{"backslash before other", `a\nb`, []Token{{Literal, `a\nb`}}},
		{"trailing backslash", `ab\`, []Token{{Literal, `ab\`}}},
		{"unterminated", "a {link", []Token{{Literal, "a {link"}}},
		{"unterminated after variable", "{a} x {b", []Token{{Variable, "a"}, {Literal, " x {b"}}},
		{"unterminated escaped", `a {b\}`, []Token{{Literal, "a {b}"}}},
		{"reopened", "{a{b}", []Token{{Literal, "{a"}, {Variable, "b"}}},
		{"stray close", "a}b", []Token{{Literal, "a}b"}}},
		{"escaped close in name", `{a\}b}`, []Token{{Variable, "a}b"}}},
		{"empty name", "{}", []Token{{Variable, ""}}},
		{"unicode", "ü {world} ✓", []Token{{Literal, "ü "}, {Variable, "world"}, {Literal, " ✓"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestRender(t *testing.T) {
	vars := Vars{"link": "https://example.com", "world": "Odin"}
	tests := []struct {
		in   string
		want string
	}{
		{"{link}", "https://example.com"},
		{`\{foo\}`, "{foo}"},
		{`\{link\}`, "{link}"},
		{"{bogus}", "{bogus}"},
		{"{world} {world}", "Odin Odin"},
		{"a {link", "a {link"},
		{"{}", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Format(tt.in, vars); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderScenario(t *testing.T) {
	vars := VarsFor(Train{
		Count:        3,
		HighestPatch: core.SHB,
		Link:         "https://example.com",
		Tracker:      "bear",
		World:        "Odin",
	})
	got := Format("{patch} {#}/{#max} {world} [{tracker}]({link})", vars)
	want := "SHB 3/12 Odin [bear](https://example.com)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestVarsFor(t *testing.T) {
	vars := VarsFor(Train{Count: 7, HighestPatch: core.EW, Link: "l", Tracker: "turtle", World: "w"})
	want := Vars{
		"#":           "7",
		"#max":        "16",
		"link":        "l",
		"patch":       "EW",
		"patch-emote": core.EW.Emote(),
		"tracker":     "turtle",
		"world":       "w",
	}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("VarsFor mismatch (-want +got):\n%s", diff)
	}
}

// Text without braces or backslashes renders to itself.
func TestRoundTripPlainText(t *testing.T) {
	const alphabet = "abcxyz 0123456789:/.-_[]()#ü✓"
	runes := []rune(alphabet)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		var b strings.Builder
		for j := rng.Intn(40); j > 0; j-- {
			b.WriteRune(runes[rng.Intn(len(runes))])
		}
		s := b.String()
		if got := Format(s, VarsFor(Train{HighestPatch: core.ARR})); got != s {
			t.Fatalf("Format(%q) = %q", s, got)
		}
	}
}

// Escaping every special character of arbitrary text renders it back verbatim.
func TestRoundTripEscaped(t *testing.T) {
	const alphabet = `ab{}\ #`
	rng := rand.New(rand.NewSource(11))
	escaper := strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)
	for i := 0; i < 500; i++ {
		var b strings.Builder
		for j := rng.Intn(30); j > 0; j-- {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		s := b.String()
		if got := Format(escaper.Replace(s), Vars{"a": "X"}); got != s {
			t.Fatalf("Format(escape(%q)) = %q", s, got)
		}
	}
}
