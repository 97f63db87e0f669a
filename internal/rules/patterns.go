package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBadPattern is returned when an exclusion pattern cannot be compiled.
var ErrBadPattern = errors.New("bad exclusion pattern")

// Patterns matches qualified type names. A pattern is either an exact name
// (java.awt.Component), a glob where * stays within one name segment and
// ** crosses segments (javax.swing.*, com.acme.**), or a raw regular
// expression prefixed with "re:".
type Patterns struct {
	raw []string
	res []*regexp.Regexp
}

var globChars = regexp.MustCompile(`^[A-Za-z0-9_$.*?]+$`)

func CompilePatterns(in []string) (Patterns, error) {
	var p Patterns
	for _, s := range in {
		s = strings.TrimSpace(s)
		re, err := compilePattern(s)
		if err != nil {
			return Patterns{}, err
		}
		p.raw = append(p.raw, s)
		p.res = append(p.res, re)
	}
	return p, nil
}

func compilePattern(s string) (*regexp.Regexp, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}
	if expr, ok := strings.CutPrefix(s, "re:"); ok {
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, s, err)
		}
		return re, nil
	}
	if !globChars.MatchString(s) {
		return nil, fmt.Errorf("%w %q: only identifier characters, '.', '*' and '?' are allowed", ErrBadPattern, s)
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") || strings.Contains(s, "..") {
		return nil, fmt.Errorf("%w %q: empty name segment", ErrBadPattern, s)
	}
	if strings.Contains(s, "***") {
		return nil, fmt.Errorf("%w %q: '***' is ambiguous", ErrBadPattern, s)
	}

	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '*':
			if i+1 < len(s) && s[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString(`[^.]*`)
			}
		case '?':
			b.WriteString(`[^.]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String()), nil
}

// Match reports whether name matches any pattern.
func (p Patterns) Match(name string) bool {
	for _, re := range p.res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (p Patterns) Len() int { return len(p.raw) }

// Matcher returns Match, or nil when there are no patterns.
func (p Patterns) Matcher() func(string) bool {
	if len(p.res) == 0 {
		return nil
	}
	return p.Match
}

// Strings returns the patterns as written.
func (p Patterns) Strings() []string { return append([]string(nil), p.raw...) }
