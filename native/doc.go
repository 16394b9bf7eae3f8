// Package native is the computer-vision library the bindings expose.
//
// Nothing in this package knows about host values. Routines take and return
// plain Go types and report failures as Go errors; the binding layer turns
// those into native errors for the host.
package native
