package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	check "github.com/roach88/tinytest/internal/assert"
	"github.com/roach88/tinytest/internal/runner"
	"github.com/roach88/tinytest/internal/testutil"
)

func deterministicRunner() *runner.Runner {
	clock := testutil.NewDeterministicClock(time.Millisecond)
	ids := testutil.NewFixedIDGenerator("golden-run")
	return runner.New(runner.WithClock(clock.Now), runner.WithIDGenerator(ids.Generate))
}

func passAndFailSuite() *runner.Suite {
	return runner.NewSuite().
		Test("t1", func() { check.StrictEquals(2, 1+1) }).
		Test("t2", func() { check.Fail("boom") })
}

func TestSnapshot_PassAndFailGolden(t *testing.T) {
	r := deterministicRunner().Run(context.Background(), passAndFailSuite())
	AssertGolden(t, "pass_and_fail", r)
}

func TestSnapshot_OmitsStacks(t *testing.T) {
	r := deterministicRunner().Run(context.Background(), passAndFailSuite())
	require.NotEmpty(t, r.Outcomes[1].Failure.Stack)

	data, err := Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "goroutine")
	assert.Contains(t, string(data), `"message":"fail(): boom"`)
}

func TestDigest_StableAcrossRuns(t *testing.T) {
	d1, err := Digest(deterministicRunner().Run(context.Background(), passAndFailSuite()))
	require.NoError(t, err)
	d2, err := Digest(deterministicRunner().Run(context.Background(), passAndFailSuite()))
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestDigest_ChangesWithOutcome(t *testing.T) {
	passing := runner.NewSuite().
		Test("t1", func() { check.StrictEquals(2, 1+1) }).
		Test("t2", func() {})

	d1, err := Digest(deterministicRunner().Run(context.Background(), passAndFailSuite()))
	require.NoError(t, err)
	d2, err := Digest(deterministicRunner().Run(context.Background(), passing))
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}
