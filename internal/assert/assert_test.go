package assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFail_AlwaysPanics(t *testing.T) {
	assert.PanicsWithError(t, "fail(): boom", func() {
		Fail("boom")
	})
}

func TestFail_PanicValueIsFailure(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		f, ok := r.(*Failure)
		require.True(t, ok, "panic value should be *Failure, got %T", r)
		assert.Equal(t, "fail(): reason", f.Message)
	}()
	Fail("reason")
}

func TestAssert_FalsyPanics(t *testing.T) {
	assert.PanicsWithError(t, "assert(): m", func() {
		Assert(0, "m")
	})
	assert.PanicsWithError(t, "assert(): empty", func() {
		Assert("", "empty")
	})
	assert.PanicsWithError(t, "assert(): nil", func() {
		Assert(nil, "nil")
	})
	assert.PanicsWithError(t, "assert(): false", func() {
		Assert(false, "false")
	})
}

func TestAssert_TruthyDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Assert(1, "m")
		Assert(true, "m")
		Assert("x", "m")
		Assert([]int{}, "m")
	})
}

func TestEquals_CoercesNumericStrings(t *testing.T) {
	assert.NotPanics(t, func() {
		Equals(1, "1")
		Equals("2.5", 2.5)
		Equals(int8(3), uint64(3))
	})
}

func TestEquals_MismatchMessage(t *testing.T) {
	assert.PanicsWithError(t, `assertEquals() "1" != "2"`, func() {
		Equals(1, 2)
	})
}

func TestStrictEquals_SameValue(t *testing.T) {
	values := []any{
		nil,
		0,
		"x",
		[]int{1, 2},
		map[string]int{"a": 1},
		&struct{}{},
	}
	for _, v := range values {
		assert.NotPanics(t, func() {
			StrictEquals(v, v)
		}, "value %v", v)
	}
}

func TestStrictEquals_AcrossTypesPanics(t *testing.T) {
	assert.PanicsWithError(t, `assertStrictEquals() "1" !== "1"`, func() {
		StrictEquals(1, "1")
	})
}

func TestStrictEquals_ArithmeticResult(t *testing.T) {
	assert.NotPanics(t, func() {
		StrictEquals(2, 1+1)
	})
}

func TestEq_IsStrict(t *testing.T) {
	assert.Panics(t, func() {
		Eq(int64(6), 6)
	})
	assert.NotPanics(t, func() {
		Eq(6.6, 2.6+4)
	})
}
