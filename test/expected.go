package test

import (
	"math"
	"testing"
)

// ExpectFailure checks that v represents a failure. v may be a bool (false
// is failure), an error (non-nil is failure), or nil (never a failure).
func ExpectFailure(t *testing.T, v interface{}) {
	t.Helper()

	switch vv := v.(type) {
	case bool:
		if vv {
			t.Errorf("expected failure, got success")
		}
	case error:
		if vv == nil {
			t.Errorf("expected failure, got success")
		}
	case nil:
		t.Errorf("expected failure, got success")
	default:
		t.Errorf("unsupported type for ExpectFailure: %T", v)
	}
}

// ExpectSuccess checks that v represents success. v may be a bool (true is
// success), an error (nil is success), or nil (always success).
func ExpectSuccess(t *testing.T, v interface{}) {
	t.Helper()

	switch vv := v.(type) {
	case bool:
		if !vv {
			t.Errorf("expected success, got failure")
		}
	case error:
		if vv != nil {
			t.Errorf("expected success, got failure: %v", vv)
		}
	case nil:
		// always success
	default:
		t.Errorf("unsupported type for ExpectSuccess: %T", v)
	}
}

// ExpectEquality fails the test if a and b are not equal, as judged by
// Equate.
func ExpectEquality(t *testing.T, a, b interface{}) {
	t.Helper()
	if !Equate(t, a, b) {
		t.Errorf("expected %v and %v to be equal", a, b)
	}
}

// ExpectInequality fails the test if a and b are equal.
func ExpectInequality(t *testing.T, a, b interface{}) {
	t.Helper()
	if a == b {
		t.Errorf("expected %v and %v to be unequal", a, b)
	}
}

// ExpectApproximate fails the test if a and b differ by more than delta as a
// fraction of b (eg. delta of 0.1 allows up to 10% relative difference).
func ExpectApproximate(t *testing.T, a, b float64, delta float64) {
	t.Helper()
	if b == 0 {
		if math.Abs(a) > delta {
			t.Errorf("expected %v to be within %v of %v", a, delta, b)
		}
		return
	}
	if math.Abs(a-b)/math.Abs(b) > delta {
		t.Errorf("expected %v to be within %v%% of %v", a, delta*100, b)
	}
}

// Equate compares a and b for equality, failing the test with t.Errorf on a
// mismatch, and reports whether they matched.
func Equate(t *testing.T, a, b interface{}) bool {
	t.Helper()

	if a == b {
		return true
	}

	t.Errorf("expected %v, got %v", b, a)
	return false
}
