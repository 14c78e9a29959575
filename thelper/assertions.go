package thelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertString(t *testing.T, message, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s. expected: %s, actual: %s", message, expected, actual)
	}
}

func AssertStringPtr(t *testing.T, message string, expected, actual *string) {
	t.Helper()
	switch {
	case expected == nil && actual == nil:
	case expected == nil:
		t.Errorf("%s. expected: <nil>, actual: %s", message, *actual)
	case actual == nil:
		t.Errorf("%s. expected: %s, actual: <nil>", message, *expected)
	default:
		AssertString(t, message, *expected, *actual)
	}
}

func AssertInt(t *testing.T, message string, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s. expected: %d, actual: %d", message, expected, actual)
	}
}

func AssertInt64(t *testing.T, message string, expected, actual int64) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s. expected: %d, actual: %d", message, expected, actual)
	}
}

func AssertBool(t *testing.T, message string, expected, actual bool) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s. expected: %t, actual: %t", message, expected, actual)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
	}
}

func AssertError(t *testing.T, message string, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("%s. expected an error", message)
	}
}

// AssertEqual compares values of any type, printing a diff on mismatch.
func AssertEqual(t *testing.T, message string, expected, actual interface{}) {
	t.Helper()
	assert.Equal(t, expected, actual, message)
}

func AssertContains(t *testing.T, message, s, substr string) {
	t.Helper()
	assert.Contains(t, s, substr, message)
}

func StringPtr(s string) *string {
	return &s
}
