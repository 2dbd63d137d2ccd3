package wnes

// arrival.go holds the inter-arrival time processes that pace the
// traffic sources.  The Bernoulli process views time as a sequence of
// slots and flips a coin with probability prob in each one; the number
// of slots until the first success is geometric, which is what gets
// sampled here.  A deterministic process with the same contract is kept
// for experiments that need fixed spacing.

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"
)

// ArrivalProcess generates successive packet inter-arrival times, in seconds.
type ArrivalProcess interface {
	NextInterval() float64
}

// BernoulliArrival samples geometric inter-arrival times over integer
// slot counts, success probability prob per slot.  The mean interval
// works out to slotTime/prob.
type BernoulliArrival struct {
	slotTime float64 // duration of one Bernoulli slot, in seconds
	prob     float64 // per-slot success probability, strictly inside (0,1)

	rngstrm *rngstream.RngStream // stream owned by this process alone
}

// CreateBernoulliArrival is a constructor.  The name seeds the rng stream, so
// two processes created with the same name (and master seed) reproduce the
// same draws.  Parameter violations are configuration errors and panic.
func CreateBernoulliArrival(name string, slotTime, prob float64) *BernoulliArrival {
	if !(slotTime > 0.0) {
		panic(fmt.Errorf("bernoulli arrival %s: time slot %v must be positive", name, slotTime))
	}
	if !(prob > 0.0) || !(prob < 1.0) {
		panic(fmt.Errorf("bernoulli arrival %s: probability %v outside (0,1)", name, prob))
	}
	ba := new(BernoulliArrival)
	ba.slotTime = slotTime
	ba.prob = prob
	ba.rngstrm = rngstream.New(name)
	return ba
}

// NextInterval draws the next inter-arrival time as a whole number of slots.
func (ba *BernoulliArrival) NextInterval() float64 {
	u01 := ba.rngstrm.RandU01()
	numSlots := sampleGeometric(u01, []float64{ba.prob})
	if !(numSlots >= 1.0) {
		panic(fmt.Errorf("geometric sample %v less than one slot", numSlots))
	}
	return numSlots * ba.slotTime
}

// DeterministicArrival returns a constant inter-arrival time, the spacing
// needed to deliver rate packets per slot
type DeterministicArrival struct {
	interval float64
}

// CreateDeterministicArrival is a constructor.  rate is packets per slot.
func CreateDeterministicArrival(name string, slotTime, rate float64) *DeterministicArrival {
	if !(slotTime > 0.0) || !(rate > 0.0) {
		panic(fmt.Errorf("deterministic arrival %s: slot %v and rate %v must be positive",
			name, slotTime, rate))
	}
	da := new(DeterministicArrival)
	da.interval = slotTime / rate
	return da
}

// NextInterval returns the fixed spacing
func (da *DeterministicArrival) NextInterval() float64 {
	return da.interval
}

// sampleGeometric has the (u01, params) signature shared by the sampling
// functions here.  params[0] is the per-slot success probability; the
// return is the number of Bernoulli trials up to and including the first
// success, always at least 1
func sampleGeometric(u01 float64, params []float64) float64 {
	return math.Floor(math.Log(u01)/math.Log(1.0-params[0])) + 1.0
}

// expRV returns a sample of an exponentially distributed random number
func expRV(u01, rate float64) float64 {
	return -math.Log(1.0-u01) / rate
}

// sampleExpRV has the function signature expected for sampling a
// service or interarrival time
func sampleExpRV(u01 float64, params []float64) float64 {
	return expRV(u01, params[0])
}

// sampleConst has the same signature, here returning a constant
func sampleConst(u01 float64, params []float64) float64 {
	return 1.0 / params[0]
}
