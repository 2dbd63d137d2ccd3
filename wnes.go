// Package wnes models per-flow packet traffic for a wireless network
// simulation and decomposes the resulting transmission event trace into
// queuing, access, and end-to-end delay statistics per (flow, link) pair.
//
// Traffic sources are driven by an evtm event manager: each source samples
// inter-arrival times from a Bernoulli (geometric) or deterministic process,
// picks a TID for every packet, and hands the packet to a transport.  The
// access-link model serves packets first-come first-serve and records
// enqueue/dequeue timestamps, which the analytics pass consumes after the
// simulation has drained.
package wnes

import (
	"errors"
	"math"
	"strings"
	"sync"

	lll "github.com/jayalane/go-lll"
)

var (
	ml     *lll.Lll
	mlOnce sync.Once
)

// Init sets up the package logger.  Must be called before any
// simulation structures are built.
func Init() {
	mlOnce.Do(func() {
		ml = lll.Init("WNES", "none")
	})
}

// InitWithLogger is an Init that accepts an externally configured logger.
func InitWithLogger(logger *lll.Lll) {
	mlOnce.Do(func() {
		ml = logger
	})
}

// numberOfIds counts the objects given identifiers through nxtID,
// so these are unique within the package
var numberOfIds int = 0

// nxtID creates an id for objects created within the wnes module that is
// unique among those objects
func nxtID() int {
	numberOfIds += 1
	return numberOfIds
}

var rdigits uint = 15

// round computed simulation time to avoid non-sensical comparisons
// induced by rounding error
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated descriptions
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
		}
	}
	if len(errMsg) == 0 {
		return nil
	}

	return errors.New(strings.Join(errMsg, ","))
}
