// Package auth holds the credential primitives of messagely: irreversible
// password hashing (CredentialStore) and signed session tokens (TokenService).
//
// Both types are stateless after construction. The hashing algorithm, cost
// factor, signing secret and token lifetime are passed to the constructors
// once at startup and never change while the process runs.
package auth
