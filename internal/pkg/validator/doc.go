// Package validator checks the shape of inbound request structs.
//
// Failures are reported as a snake_case field to message map so they can be
// returned to the client verbatim.
package validator
