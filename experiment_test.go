package wnes

import (
	"math"
	"testing"

	"github.com/iti/evt/evtm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallRunCfg(maxPckts int, failPr float64) *RunCfg {
	rc := CreateRunCfg("exptest")
	rc.RunID = 1
	rc.RngSeed = 98765
	rc.SimTimeSec = 1.0
	rc.WarmupSec = 0.0
	rc.PayloadBytes = 1024
	rc.SlotUs = 9.0
	rc.Links = []LinkDesc{
		{Name: "ap", LinkID: 0, BndwdthMbps: 100.0, SvcModel: "const",
			SvcRate: 1e5, FailPr: failPr, Tids: []int{0, 3}},
	}
	rc.Flows = []FlowDesc{
		{Name: "voice", Arrival: "bernoulli", Lambda: 0.3, Tid: 0,
			OptionalTid: 0, OptionalTidPr: 0.0, MaxPckts: maxPckts,
			Peer: "ap", Groups: []string{"all"}},
		{Name: "video", Arrival: "bernoulli", Lambda: 0.2, Tid: 3,
			OptionalTid: 0, OptionalTidPr: 0.5, MaxPckts: maxPckts,
			Peer: "ap", Groups: []string{"all"}},
	}
	rc.Groups = []GroupDesc{{Name: "all", LinkID: -1}}
	return rc
}

func runExperiment(t *testing.T, rc *RunCfg) *Experiment {
	t.Helper()

	tm := CreateTraceManager(rc.Name, false)
	ex := BuildExperiment(rc, tm)

	evtMgr := evtm.New()
	ex.ScheduleStarts(evtMgr, 0.0)
	evtMgr.Run(rc.WarmupSec + rc.SimTimeSec)
	StopSources()
	return ex
}

func TestExperimentEndToEnd(t *testing.T) {
	ex := runExperiment(t, smallRunCfg(50, 0.0))

	require.Len(t, ex.Sources, 2)
	for _, src := range ex.Sources {
		assert.Equal(t, 50, src.Sent())
	}

	// with no transmission failures every packet departs
	var captured uint64
	for _, byLink := range ex.Stats.NumSuccess() {
		for _, cnt := range byLink {
			captured += cnt
		}
	}
	assert.Equal(t, uint64(100), captured)
	assert.Zero(t, ex.Stats.NumFinalFailed())

	// departures are recorded in order within each bucket
	for _, byLink := range ex.Stats.SuccessInfo() {
		for _, records := range byLink {
			for i := 1; i < len(records); i++ {
				assert.LessOrEqual(t, records[i-1].DequeueMs, records[i].DequeueMs)
				assert.LessOrEqual(t, records[i].EnqueueMs, records[i].DequeueMs)
			}
		}
	}
}

func TestExperimentDelaysDefined(t *testing.T) {
	ex := runExperiment(t, smallRunCfg(50, 0.0))

	stats := ex.DelayStats()
	require.NotEmpty(t, stats)
	for _, byLink := range stats {
		for _, lds := range byLink {
			require.True(t, lds.Defined)
			assert.False(t, lds.Mismatch)
			assert.False(t, math.IsNaN(lds.MeanQueuingMs))
			assert.GreaterOrEqual(t, lds.MeanE2eMs, lds.MeanAccessMs)
			assert.Positive(t, lds.MeanAccessMs)
		}
	}

	// both flows land on the single link
	rs := ex.GroupSummary(ex.Cfg.Groups[0], []string{"1"})
	assert.InDelta(t, 1.0, rs.SuccessPr, 1e-12)
	assert.Positive(t, rs.ThroughputMbps)
	assert.Positive(t, rs.MeanE2eDelayMs)
}

func TestExperimentRetriesLowerSuccessPr(t *testing.T) {
	ex := runExperiment(t, smallRunCfg(100, 0.4))

	assert.Positive(t, ex.Stats.NumRetransmitted())

	rs := ex.GroupSummary(ex.Cfg.Groups[0], nil)
	assert.Less(t, rs.SuccessPr, 1.0)
	assert.Positive(t, rs.SuccessPr)
}

func TestGroupFlowIDsTracksMembership(t *testing.T) {
	rc := smallRunCfg(1, 0.0)
	rc.Flows[1].Groups = nil

	tm := CreateTraceManager(rc.Name, false)
	ex := BuildExperiment(rc, tm)

	flowIDs := ex.GroupFlowIDs("all")
	require.Len(t, flowIDs, 1)
	assert.Equal(t, ex.Sources[0].FlowID, flowIDs[0])
	assert.Empty(t, ex.GroupFlowIDs("nosuch"))
}

func TestBuildExperimentRejectsBadCfg(t *testing.T) {
	rc := smallRunCfg(1, 0.0)
	rc.SlotUs = 0.0
	tm := CreateTraceManager(rc.Name, false)
	assert.Panics(t, func() { BuildExperiment(rc, tm) })
}
