package browser

import (
	"regexp"
	"strings"
)

// CompileGlob turns a URL glob into a regular expression. "**" matches any
// run of characters, "*" matches anything except "/" and "?" matches a single
// character. Everything else matches literally.
func CompileGlob(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// URLMatcher builds a predicate for Page.WaitForURL that accepts addresses
// matching include and rejecting exclude. An empty exclude disables the
// second check.
func URLMatcher(include, exclude string) (func(string) bool, error) {
	in, err := CompileGlob(include)
	if err != nil {
		return nil, err
	}
	var ex *regexp.Regexp
	if exclude != "" {
		if ex, err = CompileGlob(exclude); err != nil {
			return nil, err
		}
	}
	return func(url string) bool {
		if !in.MatchString(url) {
			return false
		}
		return ex == nil || !ex.MatchString(url)
	}, nil
}
