package wnes

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryLineLayout(t *testing.T) {
	rs := &RunSummary{
		SuccessPr:          0.875,
		ThroughputMbps:     12.5,
		MeanQueuingDelayMs: 1.0,
		MeanAccessDelayMs:  3.5,
		MeanE2eDelayMs:     4.5,
		Params:             []string{"7", "20", "1500"},
	}

	assert.Equal(t, "0.875,12.5,1,3.5,4.5,7,20,1500", rs.Line())
}

func TestSummaryLineUndefinedDelay(t *testing.T) {
	rs := &RunSummary{
		SuccessPr:          1.0,
		MeanQueuingDelayMs: math.NaN(),
		MeanAccessDelayMs:  math.NaN(),
		MeanE2eDelayMs:     math.NaN(),
	}

	fields := strings.Split(rs.Line(), ",")
	require.Len(t, fields, 5)
	assert.Equal(t, "NaN", fields[2])
	assert.Equal(t, "NaN", fields[3])
	assert.Equal(t, "NaN", fields[4])
}

func TestAppendNoHeader(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "results.csv")

	rs := &RunSummary{SuccessPr: 0.5, Params: []string{"1"}}
	require.NoError(t, rs.AppendToFile(filename))
	rs.SuccessPr = 0.75
	require.NoError(t, rs.AppendToFile(filename))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0.5,"))
	assert.True(t, strings.HasPrefix(lines[1], "0.75,"))
}

func TestSummarizeGroupThroughput(t *testing.T) {
	gds := &GroupDelayStats{
		SuccessCount:  1000,
		AttemptCount:  1250,
		SuccessPr:     0.8,
		MeanQueuingMs: 1.0,
		MeanAccessMs:  2.0,
		MeanE2eMs:     3.0,
		Defined:       true,
	}

	rs := SummarizeGroup(gds, 1500, 20.0, []string{"run1"})

	// 1000 pckts * 1500 B * 8 b/B over 20 s
	assert.InDelta(t, 0.6, rs.ThroughputMbps, 1e-12)
	assert.InDelta(t, 0.8, rs.SuccessPr, 1e-12)
	assert.Equal(t, []string{"run1"}, rs.Params)
}
