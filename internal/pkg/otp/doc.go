// Package otp issues short-lived numeric one-time passcodes for out-of-band
// delivery (email) and compares them in constant time.
package otp
