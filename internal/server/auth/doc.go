// Package auth holds the credential primitives: the bearer-token codec and
// the password hasher. Neither touches storage.
package auth
