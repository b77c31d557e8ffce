// Package credentials manages the registered-user collection and the
// current-user marker for BioNotes. Users are persisted as a single JSON
// collection on the injected key-value store, mirroring the layout the lock
// screen client expects: "users" holds the collection, "currentUser" holds
// the last authenticated username.
//
// Passwords are stored as argon2id hashes. The current-user marker is
// independent of the in-memory lock state: locking the vault leaves the
// marker in place so biometric re-entry can identify who is re-entering
// without another password prompt. Only an explicit logout clears it.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package credentials

// User represents a registered BioNotes user as persisted in the key-value
// store's "users" collection.
type User struct {
	// Username is unique and case-sensitive. Exact-match lookups only; no
	// normalization is applied.
	Username string `json:"username"`

	// PasswordHash is the argon2id PHC string. Never exposed in responses.
	PasswordHash string `json:"passwordHash"`
}

// --- Request DTOs (bound from HTTP requests) ---

// LogoutRequest is empty; logout is driven purely by server-side state.
type LogoutRequest struct{}

// --- Service Input DTOs ---

// Credentials carries a username/password pair from the lock screen.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}
