package wnes

// report.go renders the one-line run summary.  The line is comma
// separated, holds the computed statistics followed by the echoed input
// parameters, and is appended to the results file without ever emitting
// a header, so sweeps over many runs build a plain csv table.

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RunSummary holds the fields of the summary line for one run
type RunSummary struct {
	SuccessPr          float64
	ThroughputMbps     float64
	MeanQueuingDelayMs float64
	MeanAccessDelayMs  float64
	MeanE2eDelayMs     float64

	// input parameters echoed after the statistics, already formatted
	Params []string
}

// SummarizeGroup builds the run summary for one aggregation group.
// Throughput counts delivered payload bits over the measured duration.
func SummarizeGroup(gds *GroupDelayStats, payloadBytes int, simTimeSec float64,
	params []string) *RunSummary {

	rs := new(RunSummary)
	rs.SuccessPr = gds.SuccessPr
	rs.ThroughputMbps = float64(gds.SuccessCount) * float64(payloadBytes) * 8.0 /
		simTimeSec / 1e6
	rs.MeanQueuingDelayMs = gds.MeanQueuingMs
	rs.MeanAccessDelayMs = gds.MeanAccessMs
	rs.MeanE2eDelayMs = gds.MeanE2eMs
	rs.Params = params
	return rs
}

// fmtFloat renders a float the way the summary line wants it.  NaN
// appears literally, marking an undefined statistic.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Line renders the summary as one comma-separated line, without newline
func (rs *RunSummary) Line() string {
	fields := []string{
		fmtFloat(rs.SuccessPr),
		fmtFloat(rs.ThroughputMbps),
		fmtFloat(rs.MeanQueuingDelayMs),
		fmtFloat(rs.MeanAccessDelayMs),
		fmtFloat(rs.MeanE2eDelayMs),
	}
	fields = append(fields, rs.Params...)
	return strings.Join(fields, ",")
}

// WriteLine writes the summary line to the given stream
func (rs *RunSummary) WriteLine(w io.Writer) error {
	_, err := fmt.Fprintln(w, rs.Line())
	return err
}

// AppendToFile appends the summary line to the named results file,
// creating it if needed.  No header is written on creation or append.
func (rs *RunSummary) AppendToFile(filename string) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return rs.WriteLine(f)
}
