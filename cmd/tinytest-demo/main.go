// Command tinytest-demo runs a small suite against an adder, showing how a
// binary embeds its tests and hands them to the tinytest command line.
//
//	tinytest-demo run
//	tinytest-demo run --format json
//	tinytest-demo run --db ./runs.db && tinytest-demo history --db ./runs.db
package main

import (
	"context"
	"os"
	"time"

	"github.com/roach88/tinytest/internal/assert"
	"github.com/roach88/tinytest/internal/cli"
	"github.com/roach88/tinytest/internal/runner"
)

func add(a, b float64) float64 {
	return a + b
}

func suite() *runner.Suite {
	return runner.NewSuite().
		Test("adds numbers", func() {
			assert.Eq(6.0, add(2, 4))
			assert.Eq(6.5, add(2.5, 4))
		}).
		Test("subtracts numbers", func() {
			assert.Eq(-2.0, add(2, -4))
		}).
		Test("adds numeric strings loosely", func() {
			assert.Equals("6", add(2, 4))
		}).
		AsyncTest("adds later", func(ctx context.Context) *runner.Pending {
			return runner.Go(func() error {
				time.Sleep(10 * time.Millisecond)
				assert.Assert(add(1, 1) == 2, "1 + 1 should be 2")
				return nil
			})
		})
}

func main() {
	os.Exit(cli.Execute(suite(), os.Args[1:], os.Stdout, os.Stderr))
}
