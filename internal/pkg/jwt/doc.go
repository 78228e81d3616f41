// Package jwt signs and verifies the compact tokens that carry a client's
// authentication flow state between requests.
package jwt
