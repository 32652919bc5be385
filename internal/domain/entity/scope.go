package entity

import (
	"regexp"
	"slices"
	"strings"
)

// Scope names recognized by the system.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
	ScopeBasic = "basic"
)

// SystemScopes lists every scope the system will mint into a token.
var SystemScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin, ScopeBasic}

// scopePattern matches a well-formed scope: a lowercase word.
var scopePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsValidScopeFormat reports whether s is syntactically a scope.
func IsValidScopeFormat(s string) bool {
	return scopePattern.MatchString(s)
}

// IsSystemScope reports whether s is one of the recognized system scopes.
func IsSystemScope(s string) bool {
	return slices.Contains(SystemScopes, s)
}

// ParseScopes splits a space-separated scope string into its parts,
// dropping empty segments.
func ParseScopes(raw string) []string {
	return strings.Fields(raw)
}

// JoinScopes renders a scope set in the OAuth wire format.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
