// Package ta implements the trusted application core: session lifecycle,
// parameter validation, and command dispatch over the wallet registry and
// the key engine.
//
// Every invocation crosses the trust boundary through Invoke, which
// validates the raw parameters against the protocol table before any
// handler runs, executes the handler under a single lock, and converts
// every failure into a status code with a sanitized message. Panics inside
// handlers are contained and surface as internal errors; they never cross
// the boundary as crashes.
package ta
