// Package clock provides a tiny time abstraction.
//
// OTP expiry and session lifetimes are computed from a Clocker so tests can
// pin time with Frozen and step across expiry boundaries exactly.
package clock
