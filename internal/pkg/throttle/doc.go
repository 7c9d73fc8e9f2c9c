// Package throttle provides the failure-lockout and generation-cooldown
// policies shared by all OTP device types.
//
// State types are plain values meant to be embedded in a persisted device
// record. Policies are pure: they never read the wall clock, the caller
// injects the current time on every call.
package throttle
