// Package mathfmt rewrites plain-text math notation in generated replies
// into Unicode and Discord markdown.
package mathfmt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	powerPattern = regexp.MustCompile(`([0-9A-Za-z)\]])\^(-?\d+)`)
	sqrtPattern  = regexp.MustCompile(`sqrt\(([^()]*)\)`)
	atomPattern  = regexp.MustCompile(`^[0-9A-Za-z.¹²³⁰⁴⁵⁶⁷⁸⁹⁻]+$`)
	piPattern    = regexp.MustCompile(`\bpi\b`)
	thetaPattern = regexp.MustCompile(`\btheta\b`)
	boldPattern  = regexp.MustCompile(`··(.+?)··`)
)

var superscripts = strings.NewReplacer(
	"0", "⁰", "1", "¹", "2", "²", "3", "³", "4", "⁴",
	"5", "⁵", "6", "⁶", "7", "⁷", "8", "⁸", "9", "⁹",
	"-", "⁻",
)

// Format converts base^digits to superscripts, sqrt(x) to √x, the words
// pi and theta to π and θ, and ··text·· to **text**. A radicand keeps its
// parentheses when it is compound or raised to a power.
func Format(s string) string {
	s = powerPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := powerPattern.FindStringSubmatch(m)
		return sub[1] + superscripts.Replace(sub[2])
	})
	s = replaceRoots(s)
	s = piPattern.ReplaceAllString(s, "π")
	s = thetaPattern.ReplaceAllString(s, "θ")
	s = boldPattern.ReplaceAllString(s, "**$1**")
	return s
}

// replaceRoots rewrites sqrt(x) after powers are already superscripts, so an
// exponent on the root itself is visible right after the closing paren.
func replaceRoots(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range sqrtPattern.FindAllStringSubmatchIndex(s, -1) {
		arg := s[m[2]:m[3]]
		b.WriteString(s[last:m[0]])
		if atomPattern.MatchString(arg) && !startsWithSuperscript(s[m[1]:]) {
			b.WriteString("√" + arg)
		} else {
			b.WriteString("√(" + arg + ")")
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func startsWithSuperscript(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ContainsRune("⁰¹²³⁴⁵⁶⁷⁸⁹⁻", r)
}
