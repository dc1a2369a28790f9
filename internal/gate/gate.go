package gate

import "fmt"

// Gate maps (path, credential presence) to a Decision. It holds no mutable
// state and is safe for concurrent use.
type Gate struct {
	allow          *AllowList
	rootPath       string
	protectedEntry string
}

// New creates a Gate. rootPath is the public landing page and
// protectedEntry the page authenticated visitors land on instead.
func New(allow *AllowList, rootPath, protectedEntry string) (*Gate, error) {
	if allow == nil {
		return nil, fmt.Errorf("%w: allow-list is required", ErrInvalidRule)
	}
	if rootPath == "" || rootPath[0] != '/' {
		return nil, fmt.Errorf("%w: root path must start with '/'", ErrInvalidRule)
	}
	if protectedEntry == "" || protectedEntry[0] != '/' {
		return nil, fmt.Errorf("%w: protected entry must start with '/'", ErrInvalidRule)
	}
	if NormalizePath(rootPath) == NormalizePath(protectedEntry) {
		return nil, fmt.Errorf("%w: protected entry must differ from root path", ErrInvalidRule)
	}
	if allow.Classify(NormalizePath(protectedEntry)) == Public {
		return nil, fmt.Errorf("%w: protected entry %q is on the allow-list", ErrInvalidRule, protectedEntry)
	}
	return &Gate{
		allow:          allow,
		rootPath:       NormalizePath(rootPath),
		protectedEntry: NormalizePath(protectedEntry),
	}, nil
}

// RootPath returns the public entry point redirects are sent to
func (g *Gate) RootPath() string {
	return g.rootPath
}

// ProtectedEntry returns the landing page for authenticated visitors
func (g *Gate) ProtectedEntry() string {
	return g.protectedEntry
}

// Classify reports whether a normalized path is on the allow-list
func (g *Gate) Classify(p string) Classification {
	return g.allow.Classify(p)
}

// Decide evaluates a normalized path. The allow-list is consulted first so
// public pages stay reachable with or without a session.
func (g *Gate) Decide(p string, hasSessionCredential bool) Decision {
	if g.allow.Classify(p) == Public {
		return Allow
	}
	isRoot := p == g.rootPath
	switch {
	case hasSessionCredential && isRoot:
		return RedirectToProtectedEntry
	case !hasSessionCredential && !isRoot:
		return RedirectToRoot
	default:
		return Allow
	}
}
