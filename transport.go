package wnes

// transport.go holds the socket-like contract a traffic source sends
// through, and the implementation that hands packets to the access-link
// model.  The transport carries a priority tag that maps the packet onto
// the link serving that TID.

import (
	"fmt"

	"github.com/iti/evt/evtm"
)

// PeerAddress identifies the destination of a source's packets.
type PeerAddress struct {
	Device string // name of the receiving device
	Proto  int    // protocol number, carried for trace output only
}

func (pa *PeerAddress) String() string {
	return fmt.Sprintf("%s:%d", pa.Device, pa.Proto)
}

// Packet is the unit that moves from a source through a transport onto a link
type Packet struct {
	PcktID    int // identifier unique among packets
	FlowID    int // flow the packet belongs to
	Tid       int // priority tag applied at send time
	SizeBytes int // payload length
}

// Transport is the narrow contract between a traffic source and whatever
// carries its packets.  A send failure is recoverable; it is reported to
// the caller and nothing else happens.
type Transport interface {
	Connect(peer *PeerAddress) error
	SetPriority(tid int)
	Send(evtMgr *evtm.EventManager, pckt *Packet) error
	Close()
}

// LinkTransport delivers packets to the access link serving the
// transport's current priority tag
type LinkTransport struct {
	name      string
	peer      *PeerAddress
	connected bool
	tid       int // priority applied to outgoing packets

	// which link serves each TID.  Unmapped TIDs make Send fail
	linkByTid map[int]*AccessLink
}

// CreateLinkTransport is a constructor
func CreateLinkTransport(name string, linkByTid map[int]*AccessLink) *LinkTransport {
	lt := new(LinkTransport)
	lt.name = name
	lt.linkByTid = linkByTid
	return lt
}

// Connect binds the transport to its peer.  Reconnecting after Close is
// allowed, matching a source restart.
func (lt *LinkTransport) Connect(peer *PeerAddress) error {
	if peer == nil {
		return fmt.Errorf("transport %s: connect to nil peer", lt.name)
	}
	lt.peer = peer
	lt.connected = true
	return nil
}

// SetPriority changes the TID applied to subsequent packets
func (lt *LinkTransport) SetPriority(tid int) {
	lt.tid = tid
}

// Send stamps the packet with the current priority and places it on the
// link serving that TID
func (lt *LinkTransport) Send(evtMgr *evtm.EventManager, pckt *Packet) error {
	if !lt.connected {
		return fmt.Errorf("transport %s: send while not connected", lt.name)
	}
	link, present := lt.linkByTid[lt.tid]
	if !present {
		return fmt.Errorf("transport %s: no link serves tid %d", lt.name, lt.tid)
	}
	pckt.Tid = lt.tid
	link.Deliver(evtMgr, pckt)
	return nil
}

// Close releases the binding.  Idempotent.
func (lt *LinkTransport) Close() {
	lt.connected = false
}
