package wnes

// priority.go holds the per-packet TID selection logic.  A source
// carries a primary TID and, optionally, a second TID it uses with some
// probability, which in a multi-link setup steers a share of its
// packets onto the other link.

import (
	"fmt"

	"github.com/iti/rngstream"
)

// number of TIDs recognized by 802.11; valid values are 0 through maxTid
const maxTid = 7

// TidSelector chooses the TID attached to each outgoing packet.
// When optional equals primary the optional path is structurally
// disabled: no draw is made, whatever optionalPr holds.
type TidSelector struct {
	primary    int
	optional   int
	optionalPr float64

	rngstrm *rngstream.RngStream // stream owned by this selector alone
}

// CreateTidSelector is a constructor.  The name seeds the rng stream,
// which must be distinct from the stream of the arrival process paired
// with it so the two per-send decisions stay uncorrelated.
// Out-of-range TIDs and probabilities are configuration errors and panic.
func CreateTidSelector(name string, primary, optional int, optionalPr float64) *TidSelector {
	if primary < 0 || primary > maxTid {
		panic(fmt.Errorf("tid selector %s: primary tid %d outside 0..%d", name, primary, maxTid))
	}
	if optional < 0 || optional > maxTid {
		panic(fmt.Errorf("tid selector %s: optional tid %d outside 0..%d", name, optional, maxTid))
	}
	if optionalPr < 0.0 || optionalPr > 1.0 {
		panic(fmt.Errorf("tid selector %s: probability %v outside [0,1]", name, optionalPr))
	}
	ts := new(TidSelector)
	ts.primary = primary
	ts.optional = optional
	ts.optionalPr = optionalPr
	ts.rngstrm = rngstream.New(name)
	return ts
}

// Primary returns the selector's primary TID
func (ts *TidSelector) Primary() int {
	return ts.primary
}

// Choose returns the TID for the next packet.  The optional==primary test
// comes before any draw: the configuration may carry a nonzero probability
// with identical TIDs and must still always resolve to primary.
func (ts *TidSelector) Choose() int {
	if ts.optional == ts.primary {
		return ts.primary
	}
	if ts.rngstrm.RandU01() < ts.optionalPr {
		return ts.optional
	}
	return ts.primary
}
