// Package hash provides password hashing.
//
// Only the hash is stored. Login verifies user input against it and never
// compares plaintext directly.
package hash
