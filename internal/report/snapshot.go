package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/roach88/tinytest/internal/runner"
)

// DomainReport separates report digests from any other hash of the same bytes.
const DomainReport = "tinytest/report/v1"

// Snapshot returns the stable view of r used for golden files and digests.
// Stack traces are left out: they carry goroutine IDs and addresses that
// differ between otherwise identical runs.
func Snapshot(r *runner.Report) map[string]any {
	outcomes := make([]any, len(r.Outcomes))
	for i, o := range r.Outcomes {
		entry := map[string]any{
			"index":       o.Index,
			"name":        o.Name,
			"status":      string(o.Status),
			"duration_ns": int64(o.Duration),
		}
		if o.Failure != nil {
			entry["message"] = o.Failure.Message
		}
		outcomes[i] = entry
	}

	return map[string]any{
		"run_id":      r.ID,
		"passed":      r.Passed,
		"failed":      r.Failed,
		"total":       r.Total(),
		"started_at":  formatTime(r.StartedAt),
		"finished_at": formatTime(r.FinishedAt),
		"outcomes":    outcomes,
	}
}

// Marshal returns the canonical JSON encoding of r's snapshot.
func Marshal(r *runner.Report) ([]byte, error) {
	data, err := MarshalCanonical(Snapshot(r))
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", r.ID, err)
	}
	return data, nil
}

// Digest returns the hex SHA-256 of r's canonical snapshot.
// Format: SHA256(DomainReport + 0x00 + canonical JSON)
func Digest(r *runner.Report) (string, error) {
	data, err := Marshal(r)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(DomainReport))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
