// Package errors is a helper package for the plain Go language error type. We
// think of these errors as curated errors. External to this package, curated
// errors are referenced as plain errors (ie. they implement the error
// interface).
//
// Internally, errors are thought of as being composed of parts, as described
// by The Go Programming Language (Donovan, Kernighan): "When the error is
// ultimately handled by the program's main function, it should provide a clear
// causal chain from the root of the problem to the overall failure". The
// Error() function implementation for curated errors ensures that this chain
// is normalised: it does not contain duplicate adjacent parts, which
// alleviates the problem of when and how to wrap errors.
//
// On top of the general purpose curated error, this package carries the
// numeric codes surfaced to the serial protocol as "error:N" (see Code and
// CodeOf). A curated error constructed with CodeErrorf always reports a
// stable code through CodeOf, even after being wrapped by Errorf further up
// the call stack.
package errors
