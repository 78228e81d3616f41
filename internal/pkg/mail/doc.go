// Package mail sends plain text notification email.
//
// Callers depend on the Mail interface; SMTP delivers through a relay and Log
// only records the message, which is what local runs use.
package mail
