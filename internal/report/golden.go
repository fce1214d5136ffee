package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tinytest/internal/runner"
)

// AssertGolden compares the canonical snapshot of r against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run the calling package's tests with -update:
//
//	go test ./internal/report -update
//
// Runs compared this way should use a fixed clock and run ID (see
// internal/testutil), otherwise timestamps and IDs change every time.
func AssertGolden(t *testing.T, name string, r *runner.Report) {
	t.Helper()

	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
