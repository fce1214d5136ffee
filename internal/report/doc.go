// Package report turns run reports into stable, canonical bytes.
//
// Snapshot drops the volatile parts of a runner.Report (stack traces), and
// MarshalCanonical encodes it as RFC 8785 JSON so the same run always yields
// the same bytes. The encoding backs golden-file tests (AssertGolden) and the
// digest stored with every persisted run (Digest).
package report
