package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReporterCoalescesWithinBucket(t *testing.T) {
	var calls []uint64
	sink := func(current, total uint64, status string) Control {
		calls = append(calls, current)
		return Continue
	}

	r := NewReporter(sink, 1000)
	for i := uint64(0); i <= 1000; i++ {
		r.Report(i, "working")
	}

	require.NotEmpty(t, calls)
	require.Len(t, calls, 101, "reporter should coalesce 1001 reports to one call per percent, 0% through 100%")
}

func TestReporterPropagatesCancel(t *testing.T) {
	sink := func(current, total uint64, status string) Control { return Cancel }
	r := NewReporter(sink, 10)
	require.Equal(t, Cancel, r.Report(0, "start"))
}

func TestSeverityAndCategoryStrings(t *testing.T) {
	require.Equal(t, "warning", SeverityWarning.String())
	require.Equal(t, "critical", SeverityCritical.String())
	require.Equal(t, "validation", CategoryValidation.String())
}

func TestIssueAndValidateToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, time.Minute)
	require.NoError(t, err)

	r := NewRelay(secret)
	require.True(t, r.validToken(token))
	require.False(t, r.validToken("garbage"))
}

func TestNoopSinkNeverCancels(t *testing.T) {
	require.Equal(t, Continue, NoopSink(0, 100, "x"))
}
