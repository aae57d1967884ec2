package dispatch

import "regexp"

// Pattern identifies a node: either a literal name or a compiled expression.
// An expression, when present, takes precedence.
type Pattern struct {
	Name   string
	RegExp *regexp.Regexp
}

// Matches reports whether token identifies the node described by p.
//
// Expressions use search semantics (anchor with ^ and $ for a full match).
// regexp.Regexp keeps no position state between calls, so a single pattern
// is safe to share across concurrent dispatches.
func Matches(p Pattern, token string) bool {
	if p.RegExp != nil {
		return p.RegExp.MatchString(token)
	}
	return p.Name == token
}

func (p Pattern) String() string {
	if p.RegExp != nil {
		return "/" + p.RegExp.String() + "/"
	}
	return p.Name
}
