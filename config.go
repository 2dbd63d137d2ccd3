package wnes

// config.go holds the serializable description of an experiment: the
// links, the flows that load them, and the aggregation groups reported
// at the end.  The structs carry no pointers so they serialize cleanly;
// the driver turns them into run-time objects after validation.  All
// knobs are explicit typed fields, constructed and checked at startup.

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// LinkDesc describes one access link and the TIDs it serves
type LinkDesc struct {
	Name        string  `json:"name" yaml:"name"`
	LinkID      int     `json:"linkid" yaml:"linkid"`
	BndwdthMbps float64 `json:"bndwdth" yaml:"bndwdth"`

	// contention overhead model, "expon" or "const", and its rate in
	// events per second
	SvcModel string  `json:"svcmodel" yaml:"svcmodel"`
	SvcRate  float64 `json:"svcrate" yaml:"svcrate"`

	// per-attempt transmission failure probability
	FailPr float64 `json:"failpr" yaml:"failpr"`

	// TIDs mapped onto this link
	Tids []int `json:"tids" yaml:"tids"`
}

// FlowDesc describes one traffic source
type FlowDesc struct {
	Name string `json:"name" yaml:"name"`

	// "bernoulli" or "deterministic"
	Arrival string `json:"arrival" yaml:"arrival"`

	// per-slot arrival probability for bernoulli, packets per slot
	// for deterministic
	Lambda float64 `json:"lambda" yaml:"lambda"`

	Tid           int     `json:"tid" yaml:"tid"`
	OptionalTid   int     `json:"optionaltid" yaml:"optionaltid"`
	OptionalTidPr float64 `json:"optionaltidpr" yaml:"optionaltidpr"`

	// packets to send, zero meaning unbounded
	MaxPckts int `json:"maxpckts" yaml:"maxpckts"`

	// destination device name
	Peer string `json:"peer" yaml:"peer"`

	// aggregation groups this flow belongs to
	Groups []string `json:"groups" yaml:"groups"`
}

// GroupDesc names a set of flows whose delays are aggregated together,
// optionally restricted to one link
type GroupDesc struct {
	Name string `json:"name" yaml:"name"`

	// link to restrict the aggregation to, -1 for all links
	LinkID int `json:"linkid" yaml:"linkid"`
}

// RunCfg is the top-level experiment description
type RunCfg struct {
	Name  string `json:"name" yaml:"name"`
	RunID int    `json:"runid" yaml:"runid"`

	// master seed for the rng streams
	RngSeed uint64 `json:"rngseed" yaml:"rngseed"`

	// measured simulation time, and the warmup preceding it during
	// which nothing is recorded
	SimTimeSec float64 `json:"simtime" yaml:"simtime"`
	WarmupSec  float64 `json:"warmup" yaml:"warmup"`

	PayloadBytes int `json:"payload" yaml:"payload"`

	// duration of one Bernoulli slot, in microseconds
	SlotUs float64 `json:"slotus" yaml:"slotus"`

	Links  []LinkDesc  `json:"links" yaml:"links"`
	Flows  []FlowDesc  `json:"flows" yaml:"flows"`
	Groups []GroupDesc `json:"groups" yaml:"groups"`

	// where the one-line run summary is appended
	ResultsFile string `json:"resultsfile" yaml:"resultsfile"`

	// where the tx trace is written, empty disabling the trace
	TraceFile string `json:"tracefile" yaml:"tracefile"`
}

// CreateRunCfg is an initialization constructor
func CreateRunCfg(name string) *RunCfg {
	rc := new(RunCfg)
	rc.Name = name
	rc.Links = make([]LinkDesc, 0)
	rc.Flows = make([]FlowDesc, 0)
	rc.Groups = make([]GroupDesc, 0)
	return rc
}

// WriteToFile stores the RunCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (rc *RunCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*rc)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*rc, "", "\t")
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

	return werr
}

// ReadRunCfg deserializes a byte slice holding a representation of a RunCfg
// struct.  If the input argument of dict (those bytes) is empty, the file
// whose name is given is read to acquire them.  A deserialized representation
// is returned, or an error if one is generated from a file read or the
// deserialization.
func ReadRunCfg(filename string, useYAML bool, dict []byte) (*RunCfg, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := RunCfg{}

	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// Validate checks every knob the run-time constructors will consume,
// gathering all the complaints rather than stopping at the first
func (rc *RunCfg) Validate() error {
	errs := []error{}

	if !(rc.SimTimeSec > 0.0) {
		errs = append(errs, fmt.Errorf("simtime %v must be positive", rc.SimTimeSec))
	}
	if rc.WarmupSec < 0.0 {
		errs = append(errs, fmt.Errorf("warmup %v negative", rc.WarmupSec))
	}
	if rc.PayloadBytes <= 0 {
		errs = append(errs, fmt.Errorf("payload %d must be positive", rc.PayloadBytes))
	}
	if !(rc.SlotUs > 0.0) {
		errs = append(errs, fmt.Errorf("slot %v must be positive", rc.SlotUs))
	}
	if len(rc.Links) == 0 {
		errs = append(errs, fmt.Errorf("no links defined"))
	}
	if len(rc.Flows) == 0 {
		errs = append(errs, fmt.Errorf("no flows defined"))
	}

	// each TID is served by at most one link
	servedTids := []int{}
	for _, link := range rc.Links {
		if !(link.BndwdthMbps > 0.0) {
			errs = append(errs, fmt.Errorf("link %s: bandwidth %v must be positive",
				link.Name, link.BndwdthMbps))
		}
		if !(link.SvcRate > 0.0) {
			errs = append(errs, fmt.Errorf("link %s: service rate %v must be positive",
				link.Name, link.SvcRate))
		}
		if link.FailPr < 0.0 || link.FailPr >= 1.0 {
			errs = append(errs, fmt.Errorf("link %s: failure probability %v outside [0,1)",
				link.Name, link.FailPr))
		}
		if link.SvcModel != "expon" && link.SvcModel != "const" {
			errs = append(errs, fmt.Errorf("link %s: unknown service model %s",
				link.Name, link.SvcModel))
		}
		for _, tid := range link.Tids {
			if tid < 0 || tid > maxTid {
				errs = append(errs, fmt.Errorf("link %s: tid %d outside 0..%d",
					link.Name, tid, maxTid))
			}
			if slices.Contains(servedTids, tid) {
				errs = append(errs, fmt.Errorf("link %s: tid %d served twice",
					link.Name, tid))
			}
			servedTids = append(servedTids, tid)
		}
	}

	groupNames := []string{}
	for _, group := range rc.Groups {
		groupNames = append(groupNames, group.Name)
	}

	for _, flow := range rc.Flows {
		switch flow.Arrival {
		case "bernoulli":
			if !(flow.Lambda > 0.0) || !(flow.Lambda < 1.0) {
				errs = append(errs, fmt.Errorf("flow %s: lambda %v outside (0,1)",
					flow.Name, flow.Lambda))
			}
		case "deterministic":
			if !(flow.Lambda > 0.0) {
				errs = append(errs, fmt.Errorf("flow %s: lambda %v must be positive",
					flow.Name, flow.Lambda))
			}
		default:
			errs = append(errs, fmt.Errorf("flow %s: unknown arrival model %s",
				flow.Name, flow.Arrival))
		}

		if flow.Tid < 0 || flow.Tid > maxTid {
			errs = append(errs, fmt.Errorf("flow %s: tid %d outside 0..%d",
				flow.Name, flow.Tid, maxTid))
		}
		if flow.OptionalTid < 0 || flow.OptionalTid > maxTid {
			errs = append(errs, fmt.Errorf("flow %s: optional tid %d outside 0..%d",
				flow.Name, flow.OptionalTid, maxTid))
		}
		if flow.OptionalTidPr < 0.0 || flow.OptionalTidPr > 1.0 {
			errs = append(errs, fmt.Errorf("flow %s: optional tid probability %v outside [0,1]",
				flow.Name, flow.OptionalTidPr))
		}
		if flow.MaxPckts < 0 {
			errs = append(errs, fmt.Errorf("flow %s: max packets %d negative",
				flow.Name, flow.MaxPckts))
		}
		if len(flow.Peer) == 0 {
			errs = append(errs, fmt.Errorf("flow %s: peer not set", flow.Name))
		}
		if !slices.Contains(servedTids, flow.Tid) {
			errs = append(errs, fmt.Errorf("flow %s: tid %d not served by any link",
				flow.Name, flow.Tid))
		}
		if flow.OptionalTid != flow.Tid && !slices.Contains(servedTids, flow.OptionalTid) {
			errs = append(errs, fmt.Errorf("flow %s: optional tid %d not served by any link",
				flow.Name, flow.OptionalTid))
		}
		for _, group := range flow.Groups {
			if !slices.Contains(groupNames, group) {
				errs = append(errs, fmt.Errorf("flow %s: unknown group %s",
					flow.Name, group))
			}
		}
	}

	return ReportErrs(errs)
}
