package wnes

// delay.go holds the post-run analytics that decompose per-packet
// enqueue/dequeue timestamps into queuing, access, and end-to-end
// delays.  The head-of-line time of a packet is bounded below by its
// own enqueue time and by the departure of the packet ahead of it; the
// first sample of every series reflects whatever was queued when the
// measurement window opened and is discarded before aggregation.

import (
	"math"

	count "github.com/jayalane/go-counter"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

// LinkDelayStats holds the delay decomposition for one (flow, link) bucket
type LinkDelayStats struct {
	// sums over the trimmed series, in milliseconds
	TotalQueuingMs float64
	TotalAccessMs  float64

	// per-bucket means, normalized by (successCount - 1).  NaN when
	// Defined is false
	MeanQueuingMs float64
	MeanAccessMs  float64
	MeanE2eMs     float64

	// trimmed access and end-to-end delay series, kept for moment
	// computation at group level
	AccessMs []float64
	E2eMs    []float64

	Samples  int  // length of the trimmed series
	Defined  bool // false when successCount <= 1 leaves the means undefined
	Mismatch bool // record count disagrees with the tracked success count
}

// DelayStatistics maps flow id -> link id -> the bucket's decomposition
type DelayStatistics map[int]map[int]*LinkDelayStats

// BuildHolTimes derives head-of-line times from parallel enqueue and
// dequeue series.  Index 0 is set to the enqueue time: that value is
// wrong whenever a packet was already in queue when measurement began,
// and callers discard it
func BuildHolTimes(enqueueMs, dequeueMs []float64) []float64 {
	holMs := make([]float64, len(enqueueMs))
	for i := range enqueueMs {
		if i == 0 {
			holMs[i] = enqueueMs[i]
		} else {
			holMs[i] = math.Max(enqueueMs[i], dequeueMs[i-1])
		}
	}
	return holMs
}

// ComputeDelayStats decomposes every (flow, link) bucket of records.
// numSuccess carries the independently tracked delivery counts; a bucket
// whose record count disagrees is flagged rather than silently divided.
// Buckets with no records contribute nothing.
func ComputeDelayStats(successInfo map[int]map[int][]DelayRecord,
	numSuccess map[int]map[int]uint64) DelayStatistics {

	stats := make(DelayStatistics)

	for flowID, linkMap := range successInfo {
		for linkID, records := range linkMap {
			if len(records) == 0 {
				continue
			}

			enqueueMs := make([]float64, len(records))
			dequeueMs := make([]float64, len(records))
			for i, rec := range records {
				enqueueMs[i] = rec.EnqueueMs
				dequeueMs[i] = rec.DequeueMs
			}
			holMs := BuildHolTimes(enqueueMs, dequeueMs)

			// remove the first element of every series
			enqueueMs = enqueueMs[1:]
			dequeueMs = dequeueMs[1:]
			holMs = holMs[1:]

			lds := new(LinkDelayStats)
			lds.Samples = len(holMs)
			lds.AccessMs = make([]float64, len(holMs))
			lds.E2eMs = make([]float64, len(holMs))
			for i := range holMs {
				lds.TotalQueuingMs += holMs[i] - enqueueMs[i]
				lds.TotalAccessMs += dequeueMs[i] - holMs[i]
				lds.AccessMs[i] = dequeueMs[i] - holMs[i]
				lds.E2eMs[i] = dequeueMs[i] - enqueueMs[i]
			}

			succCnt := numSuccess[flowID][linkID]
			if succCnt != uint64(len(records)) {
				// a data-collection bug upstream; flag it and keep going
				lds.Mismatch = true
				count.Incr("delay_count_mismatch")
				ml.La("success count mismatch for flow", flowID, "link", linkID,
					"records", len(records), "counted", succCnt)
			}

			if succCnt <= 1 {
				lds.Defined = false
				lds.MeanQueuingMs = math.NaN()
				lds.MeanAccessMs = math.NaN()
				lds.MeanE2eMs = math.NaN()
			} else {
				lds.Defined = true
				lds.MeanQueuingMs = lds.TotalQueuingMs / float64(succCnt-1)
				lds.MeanAccessMs = lds.TotalAccessMs / float64(succCnt-1)
				lds.MeanE2eMs = lds.MeanQueuingMs + lds.MeanAccessMs
			}

			_, present := stats[flowID]
			if !present {
				stats[flowID] = make(map[int]*LinkDelayStats)
			}
			stats[flowID][linkID] = lds
		}
	}
	return stats
}

// GroupDelayStats aggregates the buckets of a set of flows.  The means
// are weighted: summed per-bucket totals over summed success counts,
// never an average of per-bucket means.
type GroupDelayStats struct {
	Name string

	SuccessCount uint64 // delivered packets across member buckets
	AttemptCount uint64 // transmission attempts, counting retries
	SuccessPr    float64

	MeanQueuingMs float64
	MeanAccessMs  float64
	MeanE2eMs     float64

	// second raw moment of the access delay, mean of x^2, and the
	// second central moment about the group mean
	AccessRawMomentMs2     float64
	AccessCentralMomentMs2 float64

	Defined bool // false when the group delivered nothing
}

// AggregateGroup combines the buckets of the flows in flowIDs.  A linkID
// of -1 aggregates over every link; otherwise only that link's buckets
// are included.  Undefined member buckets still contribute their totals
// and counts; the weighted mean is defined whenever the summed success
// count is positive.
func AggregateGroup(name string, stats DelayStatistics,
	successInfo map[int]map[int][]DelayRecord,
	numSuccess map[int]map[int]uint64,
	flowIDs []int, linkID int) *GroupDelayStats {

	gds := new(GroupDelayStats)
	gds.Name = name

	var totQueuingMs, totAccessMs float64
	accessMs := make([]float64, 0)

	for flowID, linkMap := range stats {
		if !slices.Contains(flowIDs, flowID) {
			continue
		}
		for lid, lds := range linkMap {
			if linkID >= 0 && lid != linkID {
				continue
			}
			totQueuingMs += lds.TotalQueuingMs
			totAccessMs += lds.TotalAccessMs
			gds.SuccessCount += numSuccess[flowID][lid]
			accessMs = append(accessMs, lds.AccessMs...)

			for _, rec := range successInfo[flowID][lid] {
				gds.AttemptCount += uint64(1 + rec.Failures)
			}
		}
	}

	if gds.SuccessCount == 0 {
		gds.Defined = false
		gds.SuccessPr = math.NaN()
		gds.MeanQueuingMs = math.NaN()
		gds.MeanAccessMs = math.NaN()
		gds.MeanE2eMs = math.NaN()
		gds.AccessRawMomentMs2 = math.NaN()
		gds.AccessCentralMomentMs2 = math.NaN()
		return gds
	}

	gds.Defined = true
	gds.SuccessPr = float64(gds.SuccessCount) / float64(gds.AttemptCount)
	gds.MeanQueuingMs = totQueuingMs / float64(gds.SuccessCount)
	gds.MeanAccessMs = totAccessMs / float64(gds.SuccessCount)
	gds.MeanE2eMs = gds.MeanQueuingMs + gds.MeanAccessMs

	if len(accessMs) > 0 {
		sq := make([]float64, len(accessMs))
		dev2 := make([]float64, len(accessMs))
		for i, x := range accessMs {
			sq[i] = x * x
			dev := x - gds.MeanAccessMs
			dev2[i] = dev * dev
		}
		gds.AccessRawMomentMs2 = stat.Mean(sq, nil)
		gds.AccessCentralMomentMs2 = stat.Mean(dev2, nil)
	} else {
		gds.AccessRawMomentMs2 = math.NaN()
		gds.AccessCentralMomentMs2 = math.NaN()
	}
	return gds
}
