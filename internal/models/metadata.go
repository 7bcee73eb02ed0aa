package models

import "strings"

// Property is a single key/value pair attached to a test method.
type Property struct {
	Key   string `json:"key" yaml:"key" mapstructure:"key"`
	Value string `json:"value" yaml:"value" mapstructure:"value"`
}

// TestMetadata is the information about a test that the runner does not
// carry on its results and that has to be recovered from the test binary.
// Categories and Properties keep declaration order.
type TestMetadata struct {
	Description string
	Categories  []string
	Properties  []Property
	// ClassName is the fully qualified name of the declaring type.
	ClassName string
}

// FallbackMetadata is used when nothing could be recovered for a test.
func FallbackMetadata(r *TestResult) *TestMetadata {
	return &TestMetadata{
		Description: r.DisplayName,
		ClassName:   DeclaringType(r.FullName),
	}
}

// DeclaringType returns the part of a fully qualified test name before the
// last '.', or the empty string when there is no separator.
func DeclaringType(fullName string) string {
	typeName, _ := SplitTestName(fullName)
	return typeName
}

// SplitTestName splits a fully qualified test name into the declaring type
// and member name at the last '.'.
func SplitTestName(fullName string) (typeName, member string) {
	i := strings.LastIndexByte(fullName, '.')
	if i < 0 {
		return "", fullName
	}
	return fullName[:i], fullName[i+1:]
}
