package gate

// Decision is the outcome of evaluating a request against the gate
type Decision int

const (
	// Allow passes the request through to the next handler
	Allow Decision = iota
	// RedirectToRoot bounces an unauthenticated visitor to the public entry point
	RedirectToRoot
	// RedirectToProtectedEntry sends an authenticated visitor past the landing page
	RedirectToProtectedEntry
)

// String returns the log-friendly name of the decision
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToRoot:
		return "redirect-to-root"
	case RedirectToProtectedEntry:
		return "redirect-to-protected-entry"
	default:
		return "unknown"
	}
}

// Classification is the access class of a request path
type Classification int

const (
	Protected Classification = iota
	Public
)

func (c Classification) String() string {
	if c == Public {
		return "public"
	}
	return "protected"
}

// MatchKind selects how a rule pattern is compared with a path
type MatchKind string

const (
	// MatchPrefix matches the pattern and every path below it.
	// "/login" matches "/login" and "/login/otp" but not "/loginx";
	// "/static/" matches anything under "/static/".
	MatchPrefix MatchKind = "prefix"
	// MatchExact matches the pattern only
	MatchExact MatchKind = "exact"
	// MatchGlob matches with path.Match semantics ("*" stops at "/")
	MatchGlob MatchKind = "glob"
)

// Rule is a single allow-list entry
type Rule struct {
	Pattern string
	Match   MatchKind
	Access  Classification
}

// PublicPrefix is shorthand for a public prefix rule
func PublicPrefix(pattern string) Rule {
	return Rule{Pattern: pattern, Match: MatchPrefix, Access: Public}
}

// PublicExact is shorthand for a public exact rule
func PublicExact(pattern string) Rule {
	return Rule{Pattern: pattern, Match: MatchExact, Access: Public}
}
