// Package preflight provides readiness checks for the engines and filesystem
// paths captioner depends on.
//
// These checks run in two contexts:
//   - "captioner serve" runs RunAll at startup and logs each failure as a
//     warning; the server still starts so the health endpoint can report it.
//   - "captioner check" prints every result and exits non-zero on failure.
package preflight
