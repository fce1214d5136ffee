package assert

import "fmt"

// Failure is the panic value raised by a violated assertion.
type Failure struct {
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Message
}

// Fail unconditionally fails the current test.
func Fail(msg string) {
	panic(&Failure{Message: "fail(): " + msg})
}

// Assert fails the current test when value is not truthy.
// See Truthy for the rules.
func Assert(value any, msg string) {
	if !Truthy(value) {
		panic(&Failure{Message: "assert(): " + msg})
	}
}

// Equals fails the current test when expected and actual are not loosely equal.
// Numbers, numeric strings and booleans are coerced before comparison, so
// Equals(1, "1") holds.
func Equals(expected, actual any) {
	if !LooseEqual(expected, actual) {
		panic(&Failure{Message: fmt.Sprintf(`assertEquals() "%v" != "%v"`, expected, actual)})
	}
}

// StrictEquals fails the current test when expected and actual differ in
// dynamic type or value.
func StrictEquals(expected, actual any) {
	if !StrictEqual(expected, actual) {
		panic(&Failure{Message: fmt.Sprintf(`assertStrictEquals() "%v" !== "%v"`, expected, actual)})
	}
}

// Eq is shorthand for StrictEquals.
func Eq(expected, actual any) {
	StrictEquals(expected, actual)
}
