// Package gate decides whether a navigation request may reach protected
// dashboard routes.
//
// This package provides:
//   - An ordered allow-list of prefix, exact and glob rules
//   - Path normalization that never widens an allow-list match
//   - The pass-through / redirect decision for a (path, credential) pair
//
// The gate only looks at whether a session credential is present. Token
// validity and role checks belong to the backend the request is forwarded to.
package gate
