// Package main runs one wnes experiment: it reads the run
// configuration, builds the links and traffic sources, drives the event
// manager through warmup plus the measured interval, then decomposes
// the captured delays and appends the one-line summary for each
// configured group to the results file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/iti/evt/evtm"
	"github.com/iti/rngstream"
	"github.com/iti/wnes"
	count "github.com/jayalane/go-counter"
	"github.com/tebeka/atexit"
)

// sources begin at a uniformly drawn offset inside this many seconds
const startStaggerSec = 1.0

func main() {
	cfgFile := flag.String("cfg", "run.yaml", "experiment configuration file")
	useTrace := flag.Bool("trace", false, "gather the per-packet tx trace")
	showCounts := flag.Bool("counts", false, "log event counters at exit")
	flag.Parse()

	ext := path.Ext(*cfgFile)
	useYAML := (ext == ".yaml") || (ext == ".yml")
	rc, err := wnes.ReadRunCfg(*cfgFile, useYAML, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reading", *cfgFile, ":", err)
		atexit.Exit(1)
	}

	count.InitCounters()
	wnes.Init()
	if *showCounts {
		atexit.Register(count.LogCounters)
	}

	// one master seed determines every named stream in the run
	rngstream.SetRngStreamMasterSeed(rc.RngSeed)

	tm := wnes.CreateTraceManager(rc.Name, *useTrace && len(rc.TraceFile) > 0)
	ex := wnes.BuildExperiment(rc, tm)

	evtMgr := evtm.New()
	ex.ScheduleStarts(evtMgr, startStaggerSec)
	evtMgr.Run(rc.WarmupSec + rc.SimTimeSec)
	wnes.StopSources()

	params := []string{
		strconv.Itoa(rc.RunID),
		strconv.FormatFloat(rc.SimTimeSec, 'g', -1, 64),
		strconv.Itoa(rc.PayloadBytes),
		strconv.FormatFloat(rc.SlotUs, 'g', -1, 64),
		strconv.Itoa(len(rc.Flows)),
	}

	for _, gd := range rc.Groups {
		rs := ex.GroupSummary(gd, append(params, gd.Name))
		rs.WriteLine(os.Stdout)
		if len(rc.ResultsFile) > 0 {
			err = rs.AppendToFile(rc.ResultsFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, "appending to", rc.ResultsFile, ":", err)
				atexit.Exit(1)
			}
		}
	}

	if tm.Active() {
		tm.WriteToFile(rc.TraceFile)
	}
	atexit.Exit(0)
}
