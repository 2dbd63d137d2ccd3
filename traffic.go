package wnes

// traffic.go holds the traffic source, the client that emits one packet
// per arrival event.  A source owns at most one pending send at a time;
// the pending event carries a handle whose cancelled flag the handler
// checks, so Stop cancels synchronously without reaching into the event
// queue.

import (
	"fmt"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	count "github.com/jayalane/go-counter"
)

// SourceState is the lifecycle state of a traffic source
type SourceState int

const (
	SourceIdle SourceState = iota
	SourceRunning
	SourceStopped
)

// sendHandle is the cancellable handle for the single pending send event.
// The event still fires, but a cancelled handle makes the handler a no-op.
type sendHandle struct {
	cancelled bool
}

// Cancel marks the pending send dead.  Idempotent.
func (sh *sendHandle) Cancel() {
	sh.cancelled = true
}

// TrafficSource emits packets according to its arrival process, tagging
// each with a TID chosen by its selector
type TrafficSource struct {
	FlowID int
	Name   string

	SizeBytes  int // payload length of generated packets
	MaxPackets int // packets to send, zero meaning unbounded

	sent    int // packets attempted, counting transport failures
	state   SourceState
	peer    *PeerAddress
	peerSet bool
	pending *sendHandle // the at-most-one outstanding send

	arrival ArrivalProcess
	tids    *TidSelector
	trans   Transport
	tm      *TraceManager
}

// TrafficSourceList indexes every source by flow id
var TrafficSourceList map[int]*TrafficSource

// InitTrafficSourceList prepares the source registry
func InitTrafficSourceList() {
	TrafficSourceList = make(map[int]*TrafficSource)
}

// CreateTrafficSource is a constructor.  Collaborator or parameter
// violations are configuration errors and panic.
func CreateTrafficSource(name string, sizeBytes, maxPackets int,
	arrival ArrivalProcess, tids *TidSelector, trans Transport,
	tm *TraceManager) *TrafficSource {

	if sizeBytes <= 0 {
		panic(fmt.Errorf("source %s: packet size %d must be positive", name, sizeBytes))
	}
	if maxPackets < 0 {
		panic(fmt.Errorf("source %s: max packets %d negative", name, maxPackets))
	}
	if arrival == nil || tids == nil || trans == nil {
		panic(fmt.Errorf("source %s: missing collaborator", name))
	}

	src := new(TrafficSource)
	src.Name = name
	src.FlowID = nxtID()
	src.SizeBytes = sizeBytes
	src.MaxPackets = maxPackets
	src.state = SourceIdle
	src.arrival = arrival
	src.tids = tids
	src.trans = trans
	src.tm = tm
	tm.AddName(src.FlowID, name, "source")

	TrafficSourceList[src.FlowID] = src
	return src
}

// State reports the source's lifecycle state
func (src *TrafficSource) State() SourceState {
	return src.state
}

// Sent reports how many sends the source has attempted
func (src *TrafficSource) Sent() int {
	return src.sent
}

// SetPeer fixes the destination.  Allowed once, before the source has started.
func (src *TrafficSource) SetPeer(peer *PeerAddress) {
	if src.state != SourceIdle {
		panic(fmt.Errorf("source %s: peer set outside idle state", src.Name))
	}
	if src.peerSet {
		panic(fmt.Errorf("source %s: peer already set", src.Name))
	}
	src.peer = peer
	src.peerSet = true
}

// Start connects the transport and arms the first send at the current
// time.  The peer must have been set; that failing is a configuration
// error and fatal.
func (src *TrafficSource) Start(evtMgr *evtm.EventManager) {
	if !src.peerSet {
		panic(fmt.Errorf("source %s: started with peer address not set", src.Name))
	}
	if src.state == SourceRunning {
		return
	}

	err := src.trans.Connect(src.peer)
	if err != nil {
		panic(fmt.Errorf("source %s: %w", src.Name, err))
	}
	src.trans.SetPriority(src.tids.Primary())
	src.state = SourceRunning
	ml.La("source", src.Name, "starting at", evtMgr.CurrentSeconds())

	src.armSend(evtMgr, 0.0)
}

// armSend schedules the next send.  A second outstanding send is a
// logic error.
func (src *TrafficSource) armSend(evtMgr *evtm.EventManager, delay float64) {
	if src.pending != nil {
		panic(fmt.Errorf("source %s: send already pending", src.Name))
	}
	sh := new(sendHandle)
	src.pending = sh
	evtMgr.Schedule(src, sh, sendPckt, vrtime.SecondsToTime(delay))
}

// sendPckt is the event handler for a source's send.  It emits one
// packet, then samples the arrival process and re-arms itself unless the
// packet budget is exhausted, in which case the source goes quiescent
// while remaining in the running state.
func sendPckt(evtMgr *evtm.EventManager, context any, data any) any {
	src := context.(*TrafficSource)
	sh := data.(*sendHandle)

	// a cancelled handle means Stop got here first
	if sh.cancelled || src.state != SourceRunning {
		return nil
	}
	src.pending = nil

	tid := src.tids.Choose()
	src.trans.SetPriority(tid)

	pckt := new(Packet)
	pckt.PcktID = nxtID()
	pckt.FlowID = src.FlowID
	pckt.SizeBytes = src.SizeBytes

	err := src.trans.Send(evtMgr, pckt)
	now := evtMgr.CurrentTime()
	if err == nil {
		count.IncrSuffix("src_tx", src.Name)
		AddTxTrace(src.tm, now, src.FlowID, pckt.PcktID, tid,
			src.peer.String(), src.SizeBytes, "tx")
		ml.Ln("TX", src.SizeBytes, "bytes to", src.peer.String(),
			"uid", pckt.PcktID, "time", now.Seconds())
	} else {
		// transmission failure is recoverable; the cadence continues
		count.IncrSuffix("src_txfail", src.Name)
		AddTxTrace(src.tm, now, src.FlowID, pckt.PcktID, tid,
			src.peer.String(), src.SizeBytes, "txfail")
		ml.La("error sending", src.SizeBytes, "bytes to", src.peer.String(), ":", err)
	}
	src.sent += 1

	interval := src.arrival.NextInterval()
	count.MarkDistribution("interarrival-"+src.Name, interval)

	if (src.sent < src.MaxPackets) || (src.MaxPackets == 0) {
		src.armSend(evtMgr, interval)
	}
	return nil
}

// Stop cancels any pending send and releases the transport.  Stop after
// Stop is a no-op; no send can occur afterwards because the pending
// handle was cancelled.
func (src *TrafficSource) Stop() {
	if src.state == SourceStopped {
		return
	}
	if src.pending != nil {
		src.pending.Cancel()
		src.pending = nil
	}
	src.trans.Close()
	src.state = SourceStopped
	ml.La("source", src.Name, "stopped after", src.sent, "sends")
}

// StartSourceEvt is an event handler that starts the source passed as
// context, used to stagger source start times
func StartSourceEvt(evtMgr *evtm.EventManager, context any, data any) any {
	src := context.(*TrafficSource)
	src.Start(evtMgr)
	return nil
}

// StopSourceEvt is an event handler that stops the source passed as context
func StopSourceEvt(evtMgr *evtm.EventManager, context any, data any) any {
	src := context.(*TrafficSource)
	src.Stop()
	return nil
}

// StartSources starts every registered source
func StartSources(evtMgr *evtm.EventManager) {
	for _, src := range TrafficSourceList {
		src.Start(evtMgr)
	}
}

// StopSources stops every registered source
func StopSources() {
	for _, src := range TrafficSourceList {
		src.Stop()
	}
}
