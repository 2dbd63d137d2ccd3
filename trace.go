package wnes

import (
	"encoding/json"
	"os"
	"path"
	"strconv"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

// TraceInst is one serialized trace record with the time and type
// pulled out for indexing
type TraceInst struct {
	TraceTime string
	TraceType string
	TraceStr  string
}

// NameType is an entry in a dictionary created for a trace
// that maps object id numbers to a (name,type) pair
type NameType struct {
	Name string
	Type string
}

// TraceManager gathers per-packet transmission events from the traffic
// sources and access links for post-run inspection.  It is purely an
// observability sink; nothing feeds back from it into scheduling.
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// text name associated with each objID
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, indexed by flow id
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.NameByID = make(map[int]NameType)
	tm.Traces = make(map[int][]TraceInst)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// AddTrace creates a record of the trace using its calling arguments, and stores it
func (tm *TraceManager) AddTrace(vrt vrtime.Time, flowID int, trace TraceInst) {
	if !tm.InUse {
		return
	}

	_, present := tm.Traces[flowID]
	if !present {
		tm.Traces[flowID] = make([]TraceInst, 0)
	}
	tm.Traces[flowID] = append(tm.Traces[flowID], trace)
}

// AddName is used to add an element to the id -> (name,type) dictionary for the trace file
func (tm *TraceManager) AddName(id int, name string, objDesc string) {
	if tm.InUse {
		_, present := tm.NameByID[id]
		if present {
			panic("duplicated id in AddName")
		}
		tm.NameByID[id] = NameType{Name: name, Type: objDesc}
	}
}

// WriteToFile stores the Traces struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tm *TraceManager) WriteToFile(filename string) bool {
	if !tm.InUse {
		return false
	}
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*tm)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*tm, "", "\t")
	}

	if merr != nil {
		panic(merr)
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		panic(cerr)
	}
	_, werr := f.WriteString(string(bytes[:]))
	if werr != nil {
		panic(werr)
	}
	f.Close()
	return true
}

// TxTrace records the outcome of one transmission attempt by a traffic source
type TxTrace struct {
	Time      float64 // simulation time of the attempt
	Ticks     int64   // ticks variable of time
	FlowID    int     // flow the packet belongs to
	PcktID    int     // identifier unique to the packet
	Tid       int     // TID the packet carried
	Dest      string  // destination identity
	SizeBytes int     // payload length
	Op        string  // "tx" on success, "txfail" on transport failure
}

// Serialize renders the record for storage in a TraceInst
func (ttr *TxTrace) Serialize() string {
	bytes, merr := yaml.Marshal(*ttr)
	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// AddTxTrace creates a record of a transmission attempt and stores it
func AddTxTrace(tm *TraceManager, vrt vrtime.Time, flowID, pcktID, tid int,
	dest string, sizeBytes int, op string) {

	ttr := new(TxTrace)
	ttr.Time = vrt.Seconds()
	ttr.Ticks = vrt.Ticks()
	ttr.FlowID = flowID
	ttr.PcktID = pcktID
	ttr.Tid = tid
	ttr.Dest = dest
	ttr.SizeBytes = sizeBytes
	ttr.Op = op

	ttrStr := ttr.Serialize()
	traceTime := strconv.FormatFloat(vrt.Seconds(), 'f', -1, 64)

	trcInst := TraceInst{TraceTime: traceTime, TraceType: "tx", TraceStr: ttrStr}
	tm.AddTrace(vrt, flowID, trcInst)
}
