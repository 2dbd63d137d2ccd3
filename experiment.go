package wnes

// experiment.go turns a validated RunCfg into the run-time objects of a
// simulation: access links, traffic sources, the tx statistics
// collector, and the trace manager binding.  It is called from the
// module that creates and runs a simulation.

import (
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
	"golang.org/x/exp/slices"
)

// Experiment gathers everything a run needs
type Experiment struct {
	Cfg      *RunCfg
	TraceMgr *TraceManager
	Stats    *TxStats

	// links by id, and by the TID they serve
	Links     map[int]*AccessLink
	LinkByTid map[int]*AccessLink

	// sources in the order their FlowDescs appear
	Sources []*TrafficSource

	delayStats DelayStatistics
}

// BuildExperiment validates the configuration and assembles the
// run-time structures.  Configuration problems are fatal here; nothing
// downstream re-checks them.
func BuildExperiment(rc *RunCfg, tm *TraceManager) *Experiment {
	err := rc.Validate()
	if err != nil {
		panic(err)
	}

	InitTrafficSourceList()

	ex := new(Experiment)
	ex.Cfg = rc
	ex.TraceMgr = tm
	ex.Stats = CreateTxStats(rc.WarmupSec, rc.WarmupSec+rc.SimTimeSec)
	ex.Links = make(map[int]*AccessLink)
	ex.LinkByTid = make(map[int]*AccessLink)
	ex.Sources = make([]*TrafficSource, 0, len(rc.Flows))

	for _, linkDesc := range rc.Links {
		link := CreateAccessLink(linkDesc.Name, linkDesc.LinkID, linkDesc.BndwdthMbps,
			linkDesc.SvcRate, linkDesc.FailPr, linkDesc.SvcModel, ex.Stats)
		ex.Links[linkDesc.LinkID] = link
		for _, tid := range linkDesc.Tids {
			ex.LinkByTid[tid] = link
		}
	}

	slotSec := rc.SlotUs * 1e-6
	for _, flowDesc := range rc.Flows {
		var arrival ArrivalProcess
		switch flowDesc.Arrival {
		case "bernoulli":
			arrival = CreateBernoulliArrival(flowDesc.Name+"-arrival", slotSec, flowDesc.Lambda)
		case "deterministic":
			arrival = CreateDeterministicArrival(flowDesc.Name+"-arrival", slotSec, flowDesc.Lambda)
		}

		tids := CreateTidSelector(flowDesc.Name+"-tid", flowDesc.Tid,
			flowDesc.OptionalTid, flowDesc.OptionalTidPr)
		trans := CreateLinkTransport(flowDesc.Name+"-sock", ex.LinkByTid)

		src := CreateTrafficSource(flowDesc.Name, rc.PayloadBytes, flowDesc.MaxPckts,
			arrival, tids, trans, tm)
		src.SetPeer(&PeerAddress{Device: flowDesc.Peer, Proto: 1})
		ex.Sources = append(ex.Sources, src)
	}

	return ex
}

// ScheduleStarts arms every source's start, staggered uniformly over
// [0, maxStaggerSec) so the sources do not begin in lockstep
func (ex *Experiment) ScheduleStarts(evtMgr *evtm.EventManager, maxStaggerSec float64) {
	startRng := rngstream.New(ex.Cfg.Name + "-starts")
	for _, src := range ex.Sources {
		offset := 0.0
		if maxStaggerSec > 0.0 {
			offset = startRng.RandU01() * maxStaggerSec
		}
		evtMgr.Schedule(src, nil, StartSourceEvt, vrtime.SecondsToTime(offset))
	}
}

// GroupFlowIDs resolves a group name to the flow ids of its member sources
func (ex *Experiment) GroupFlowIDs(groupName string) []int {
	flowIDs := []int{}
	for idx, flowDesc := range ex.Cfg.Flows {
		if slices.Contains(flowDesc.Groups, groupName) {
			flowIDs = append(flowIDs, ex.Sources[idx].FlowID)
		}
	}
	return flowIDs
}

// DelayStats runs the delay decomposition over the captured records,
// once, and caches the result
func (ex *Experiment) DelayStats() DelayStatistics {
	if ex.delayStats == nil {
		ex.delayStats = ComputeDelayStats(ex.Stats.SuccessInfo(), ex.Stats.NumSuccess())
	}
	return ex.delayStats
}

// GroupSummary aggregates a configured group and renders its run summary
func (ex *Experiment) GroupSummary(gd GroupDesc, params []string) *RunSummary {
	gds := AggregateGroup(gd.Name, ex.DelayStats(), ex.Stats.SuccessInfo(),
		ex.Stats.NumSuccess(), ex.GroupFlowIDs(gd.Name), gd.LinkID)
	return SummarizeGroup(gds, ex.Cfg.PayloadBytes, ex.Cfg.SimTimeSec, params)
}
