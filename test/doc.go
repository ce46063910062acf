// Package test provides a small set of comparison and capped-buffer helpers
// shared by the _test.go files throughout this module. It exists instead of
// a third-party assertion library so test failures read the same way as the
// rest of the module's diagnostics.
package test
