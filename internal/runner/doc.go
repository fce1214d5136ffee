// Package runner executes named test procedures and aggregates their outcomes.
//
// A Suite is an ordered mapping from test name to Procedure. Runner.Start
// executes the tests one after another on its own goroutine, recovering every
// panic (including failed assertions from package assert) and every returned
// error or rejected Pending, so each test yields exactly one Outcome and a
// failure never stops the tests after it.
//
// Results are delivered two ways: a Reporter sees each Outcome as it is
// produced plus the final Report, and Run.Wait returns the Report.
//
//	suite := runner.NewSuite().
//	    Test("t1", func() { assert.Eq(2, 1+1) }).
//	    Test("t2", func() { assert.Fail("boom") })
//
//	report := runner.New().Run(ctx, suite)
//	// report.Passed == 1, report.Failed == 1
//
// Asynchronous tests return a *Pending, usually built with Go:
//
//	suite.AsyncTest("fetch", func(ctx context.Context) *runner.Pending {
//	    return runner.Go(func() error {
//	        body, err := fetch(ctx)
//	        if err != nil {
//	            return err
//	        }
//	        assert.Equals("ok", body)
//	        return nil
//	    })
//	})
//
// There are no timeouts: a test that never settles stalls the run.
package runner
