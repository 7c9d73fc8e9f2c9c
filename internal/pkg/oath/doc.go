// Package oath implements the HOTP and TOTP one-time-password algorithms
// from RFC 4226 and RFC 6238.
//
// The package is stateless: every function is a pure computation over its
// inputs. Counter and time-step bookkeeping (tolerance windows, drift,
// replay guards) belongs to the device state machines that call into it.
package oath
