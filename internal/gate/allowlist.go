package gate

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidRule is returned when an allow-list rule cannot be evaluated
var ErrInvalidRule = errors.New("invalid allow-list rule")

// AllowList is an ordered set of rules. The first matching rule decides the
// classification; a path that matches nothing is Protected.
type AllowList struct {
	rules []Rule
}

// DefaultRules returns the routes reachable without a session credential
func DefaultRules() []Rule {
	return []Rule{
		// Static and framework-internal assets
		PublicPrefix("/static/"),
		PublicPrefix("/_next/"),
		PublicExact("/favicon.ico"),
		PublicExact("/robots.txt"),

		// Public auth pages
		PublicPrefix("/login"),
		PublicPrefix("/register"),
		PublicPrefix("/forgot-password"),
		PublicPrefix("/reset-password"),

		// API routes, including the backend proxy and webhook ingestion.
		// The gate protects UI navigation only.
		PublicPrefix("/api/"),

		// Probes
		PublicExact("/healthz"),
		PublicExact("/readyz"),
	}
}

// NewAllowList validates and freezes the given rules
func NewAllowList(rules ...Rule) (*AllowList, error) {
	frozen := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, rule.Pattern, err)
		}
		frozen = append(frozen, rule)
	}
	return &AllowList{rules: frozen}, nil
}

// Rules returns a copy of the configured rules in evaluation order
func (l *AllowList) Rules() []Rule {
	out := make([]Rule, len(l.rules))
	copy(out, l.rules)
	return out
}

// Classify returns the access class of a normalized path
func (l *AllowList) Classify(p string) Classification {
	for _, rule := range l.rules {
		if rule.matches(p) {
			return rule.Access
		}
	}
	return Protected
}

func (r Rule) matches(p string) bool {
	switch r.Match {
	case MatchExact:
		return p == r.Pattern
	case MatchPrefix:
		base := strings.TrimSuffix(r.Pattern, "/")
		if base == "" {
			return true
		}
		return p == base || strings.HasPrefix(p, base+"/")
	case MatchGlob:
		ok, err := path.Match(r.Pattern, p)
		return err == nil && ok
	default:
		return false
	}
}

func validateRule(rule Rule) error {
	if !strings.HasPrefix(rule.Pattern, "/") {
		return fmt.Errorf("%w: pattern must start with '/'", ErrInvalidRule)
	}
	if rule.Access != Public && rule.Access != Protected {
		return fmt.Errorf("%w: unknown access class %d", ErrInvalidRule, rule.Access)
	}
	switch rule.Match {
	case MatchPrefix, MatchExact:
		return nil
	case MatchGlob:
		if _, err := path.Match(rule.Pattern, "/"); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown match kind %q", ErrInvalidRule, rule.Match)
	}
}

// NormalizePath turns an escaped request path into the form used for
// classification. Percent-encoded dots are treated as dots and dot segments
// are resolved, so "/static/../dashboard" and "/static/%2e%2e/dashboard"
// both classify as "/dashboard". Other escapes are left encoded: decoding
// "%2F" could only turn a protected path into a public one.
func NormalizePath(escaped string) string {
	if escaped == "" {
		return "/"
	}
	if strings.Contains(escaped, "%") {
		escaped = strings.NewReplacer("%2e", ".", "%2E", ".").Replace(escaped)
	}
	if !strings.HasPrefix(escaped, "/") {
		escaped = "/" + escaped
	}
	return path.Clean(escaped)
}
