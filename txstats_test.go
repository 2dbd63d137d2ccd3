package wnes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFiltersRecords(t *testing.T) {
	ts := CreateTxStats(5.0, 10.0)

	ts.AddSuccess(4.0, DelayRecord{FlowID: 1, LinkID: 0, EnqueueMs: 3900, DequeueMs: 4000})
	ts.AddSuccess(6.0, DelayRecord{FlowID: 1, LinkID: 0, EnqueueMs: 5900, DequeueMs: 6000})
	ts.AddSuccess(11.0, DelayRecord{FlowID: 1, LinkID: 0, EnqueueMs: 10900, DequeueMs: 11000})

	require.Len(t, ts.SuccessInfo()[1][0], 1)
	assert.Equal(t, uint64(1), ts.NumSuccess()[1][0])
	assert.InDelta(t, 6000.0, ts.SuccessInfo()[1][0][0].DequeueMs, 1e-9)
}

func TestFailureAndRetryCounts(t *testing.T) {
	ts := CreateTxStats(0.0, 10.0)

	ts.AddSuccess(1.0, DelayRecord{FlowID: 1, LinkID: 0, Failures: 0})
	ts.AddSuccess(2.0, DelayRecord{FlowID: 1, LinkID: 0, Failures: 3})
	ts.AddFinalFailure(3.0, 1, 0)
	ts.AddFinalFailure(20.0, 1, 0) // outside the window

	assert.Equal(t, uint64(1), ts.NumFinalFailed())
	assert.Equal(t, uint64(1), ts.NumRetransmitted())
	assert.InDelta(t, 1.5, ts.AvgFailures(), 1e-12)
}

func TestRecordsKeepDepartureOrder(t *testing.T) {
	ts := CreateTxStats(0.0, 10.0)

	ts.AddSuccess(1.0, DelayRecord{FlowID: 1, LinkID: 0, DequeueMs: 1000})
	ts.AddSuccess(2.0, DelayRecord{FlowID: 1, LinkID: 0, DequeueMs: 2000})
	ts.AddSuccess(3.0, DelayRecord{FlowID: 1, LinkID: 1, DequeueMs: 3000})

	records := ts.SuccessInfo()[1][0]
	require.Len(t, records, 2)
	assert.Less(t, records[0].DequeueMs, records[1].DequeueMs)
	assert.Len(t, ts.SuccessInfo()[1][1], 1)
}
