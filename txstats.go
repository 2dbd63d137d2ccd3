package wnes

// txstats.go collects the raw material the delay analytics run on: one
// DelayRecord per successfully delivered packet, grouped by (flow, link),
// plus independently tracked success and failure counts.  Records are
// only captured inside the measurement window, so a packet already
// queued when the window opens yields the biased first sample the
// analytics discard.

// DelayRecord holds the timing of one successfully delivered packet.
// Records are immutable once captured and ordered by departure within
// their (flow, link) bucket.
type DelayRecord struct {
	FlowID    int
	LinkID    int
	EnqueueMs float64 // time the packet joined the link queue
	DequeueMs float64 // time the packet departed the link
	Failures  int     // failed transmission attempts before success
}

// TxStats accumulates delivery records and counts over a measurement window
type TxStats struct {
	startSec float64
	stopSec  float64

	// records per flow id per link id, in departure order
	successInfo map[int]map[int][]DelayRecord

	// success count per flow id per link id, tracked separately from
	// the record lists so disagreement can be detected downstream
	numSuccess map[int]map[int]uint64

	numFinalFailed   uint64 // packets that exhausted their retries
	numRetransmitted uint64 // delivered packets that needed at least one retry
	totalFailures    uint64 // failed attempts across all delivered packets
}

// CreateTxStats is a constructor.  Only events with departure times inside
// [startSec, stopSec] are recorded.
func CreateTxStats(startSec, stopSec float64) *TxStats {
	ts := new(TxStats)
	ts.startSec = startSec
	ts.stopSec = stopSec
	ts.successInfo = make(map[int]map[int][]DelayRecord)
	ts.numSuccess = make(map[int]map[int]uint64)
	return ts
}

// inWindow reports whether an event at the given time is measured
func (ts *TxStats) inWindow(now float64) bool {
	return ts.startSec <= now && now <= ts.stopSec
}

// AddSuccess captures the record of a delivered packet
func (ts *TxStats) AddSuccess(now float64, rec DelayRecord) {
	if !ts.inWindow(now) {
		return
	}

	_, present := ts.successInfo[rec.FlowID]
	if !present {
		ts.successInfo[rec.FlowID] = make(map[int][]DelayRecord)
		ts.numSuccess[rec.FlowID] = make(map[int]uint64)
	}
	ts.successInfo[rec.FlowID][rec.LinkID] = append(ts.successInfo[rec.FlowID][rec.LinkID], rec)
	ts.numSuccess[rec.FlowID][rec.LinkID] += 1

	if rec.Failures > 0 {
		ts.numRetransmitted += 1
		ts.totalFailures += uint64(rec.Failures)
	}
}

// AddFinalFailure counts a packet that was never delivered
func (ts *TxStats) AddFinalFailure(now float64, flowID, linkID int) {
	if !ts.inWindow(now) {
		return
	}
	ts.numFinalFailed += 1
}

// SuccessInfo returns the captured records, keyed by flow id then link id
func (ts *TxStats) SuccessInfo() map[int]map[int][]DelayRecord {
	return ts.successInfo
}

// NumSuccess returns the independently tracked success counts
func (ts *TxStats) NumSuccess() map[int]map[int]uint64 {
	return ts.numSuccess
}

// NumFinalFailed returns the count of packets lost after retries
func (ts *TxStats) NumFinalFailed() uint64 {
	return ts.numFinalFailed
}

// NumRetransmitted returns the count of delivered packets that needed retries
func (ts *TxStats) NumRetransmitted() uint64 {
	return ts.numRetransmitted
}

// AvgFailures returns the mean number of failed attempts per delivered packet
func (ts *TxStats) AvgFailures() float64 {
	var delivered uint64
	for _, linkMap := range ts.numSuccess {
		for _, cnt := range linkMap {
			delivered += cnt
		}
	}
	if delivered == 0 {
		return 0.0
	}
	return float64(ts.totalFailures) / float64(delivered)
}
