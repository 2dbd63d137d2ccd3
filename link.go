package wnes

// link.go holds the access-link model that stands in for the MAC/queue
// layer.  Each link serves its queue first-come first-serve, one packet
// at a time; the time a packet occupies the server covers transmission
// plus whatever contention the sampler models.  The link is what
// produces the (enqueue, dequeue) timestamp pairs the delay analytics
// consume after the run.

import (
	"fmt"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
	count "github.com/jayalane/go-counter"
)

// retransmission attempts allowed before a packet is declared lost
const retryLimit = 7

// queuedPckt pairs a packet with the time it joined the link's queue
type queuedPckt struct {
	pckt       *Packet
	enqueueSec float64
}

// AccessLink is a single-server FIFO model of one wireless link
type AccessLink struct {
	LinkID int
	name   string

	bndwdth float64 // link bandwidth in Mbps
	failPr  float64 // per-attempt transmission failure probability

	// samples the contention overhead added to each service, in seconds.
	// First argument is a U01 random number, second a vector of
	// parameters for the distribution
	sampleOverhead func(float64, []float64) float64
	overheadParams []float64

	serving bool
	inQ     []queuedPckt

	rngstrm *rngstream.RngStream // stream owned by this link alone
	stats   *TxStats
}

// CreateAccessLink is a constructor.  svcModel selects the contention
// overhead distribution ("expon" or "const"), svcRate its rate parameter in
// events per second.  The name seeds the link's rng stream.
func CreateAccessLink(name string, linkID int, bndwdth, svcRate, failPr float64,
	svcModel string, stats *TxStats) *AccessLink {

	if !(bndwdth > 0.0) {
		panic(fmt.Errorf("link %s: bandwidth %v must be positive", name, bndwdth))
	}
	if !(svcRate > 0.0) {
		panic(fmt.Errorf("link %s: service rate %v must be positive", name, svcRate))
	}
	if failPr < 0.0 || failPr >= 1.0 {
		panic(fmt.Errorf("link %s: failure probability %v outside [0,1)", name, failPr))
	}

	al := new(AccessLink)
	al.LinkID = linkID
	al.name = name
	al.bndwdth = bndwdth
	al.failPr = failPr
	al.overheadParams = []float64{svcRate}
	al.inQ = make([]queuedPckt, 0)
	al.rngstrm = rngstream.New(name)
	al.stats = stats

	switch svcModel {
	case "exponential", "exp", "expon":
		al.sampleOverhead = sampleExpRV
	case "constant", "const":
		al.sampleOverhead = sampleConst
	default:
		panic(fmt.Errorf("link %s: unknown service model %s", name, svcModel))
	}
	return al
}

// qlen returns the number of packets enqueued on the link
func (al *AccessLink) qlen() int {
	return len(al.inQ)
}

// Deliver places a packet at the tail of the link's queue and starts
// service if the server is free
func (al *AccessLink) Deliver(evtMgr *evtm.EventManager, pckt *Packet) {
	now := evtMgr.CurrentSeconds()
	al.inQ = append(al.inQ, queuedPckt{pckt: pckt, enqueueSec: now})
	count.IncrSuffix("link_enqueue", al.name)

	if !al.serving {
		al.srtService(evtMgr)
	}
}

// srtService begins serving the packet at the head of the queue.  The
// service time is the frame transmission time plus sampled contention
// overhead.
func (al *AccessLink) srtService(evtMgr *evtm.EventManager) {
	al.serving = true

	head := al.inQ[0]
	frameLenMbits := float64(head.pckt.SizeBytes) * 8.0 / 1e6
	svc := frameLenMbits / al.bndwdth
	svc += al.sampleOverhead(al.rngstrm.RandU01(), al.overheadParams)
	svc = roundFloat(svc, rdigits)

	evtMgr.Schedule(al, nil, linkSvcComplete, vrtime.SecondsToTime(svc))
}

// linkSvcComplete fires when the head packet's service ends.  The packet
// departs, its retransmission count is drawn, and the next packet (if
// any) enters service.
func linkSvcComplete(evtMgr *evtm.EventManager, context any, data any) any {
	al := context.(*AccessLink)

	head := al.inQ[0]
	al.inQ = al.inQ[1:]
	now := evtMgr.CurrentSeconds()

	// number of failed attempts preceding the successful one.  More
	// than retryLimit failures means the packet was lost
	failures := 0
	for failures <= retryLimit && al.rngstrm.RandU01() < al.failPr {
		failures += 1
	}

	if failures > retryLimit {
		count.IncrSuffix("link_drop", al.name)
		al.stats.AddFinalFailure(now, head.pckt.FlowID, al.LinkID)
	} else {
		count.IncrSuffix("link_dequeue", al.name)
		al.stats.AddSuccess(now, DelayRecord{
			FlowID:    head.pckt.FlowID,
			LinkID:    al.LinkID,
			EnqueueMs: head.enqueueSec * 1e3,
			DequeueMs: now * 1e3,
			Failures:  failures,
		})
	}

	if al.qlen() > 0 {
		al.srtService(evtMgr)
	} else {
		al.serving = false
	}
	return nil
}
