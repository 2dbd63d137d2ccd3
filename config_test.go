package wnes

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRunCfg() *RunCfg {
	rc := CreateRunCfg("cfgtest")
	rc.RunID = 1
	rc.RngSeed = 12345
	rc.SimTimeSec = 1.0
	rc.WarmupSec = 0.1
	rc.PayloadBytes = 1500
	rc.SlotUs = 9.0
	rc.Links = []LinkDesc{
		{Name: "ap", LinkID: 0, BndwdthMbps: 100.0, SvcModel: "expon",
			SvcRate: 1e4, FailPr: 0.1, Tids: []int{0, 3}},
	}
	rc.Flows = []FlowDesc{
		{Name: "voice", Arrival: "bernoulli", Lambda: 0.2, Tid: 0,
			OptionalTid: 3, OptionalTidPr: 0.25, Peer: "ap", Groups: []string{"all"}},
	}
	rc.Groups = []GroupDesc{{Name: "all", LinkID: -1}}
	return rc
}

func TestValidCfgPassesValidation(t *testing.T) {
	assert.NoError(t, validRunCfg().Validate())
}

func TestValidationGathersAllErrors(t *testing.T) {
	rc := validRunCfg()
	rc.SimTimeSec = 0.0
	rc.PayloadBytes = 0
	rc.Links[0].FailPr = 1.0

	err := rc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simtime")
	assert.Contains(t, err.Error(), "payload")
	assert.Contains(t, err.Error(), "failure probability")
}

func TestValidationRejectsDuplicateTidService(t *testing.T) {
	rc := validRunCfg()
	rc.Links = append(rc.Links, LinkDesc{Name: "ap2", LinkID: 1,
		BndwdthMbps: 50.0, SvcModel: "const", SvcRate: 1e4, Tids: []int{0}})

	err := rc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "served twice")
}

func TestValidationRejectsUnservedTid(t *testing.T) {
	rc := validRunCfg()
	rc.Flows[0].Tid = 5

	err := rc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not served by any link")
}

func TestValidationChecksFlowKnobs(t *testing.T) {
	rc := validRunCfg()
	rc.Flows[0].Arrival = "poisson"
	rc.Flows[0].OptionalTidPr = 2.0
	rc.Flows[0].Peer = ""
	rc.Flows[0].Groups = []string{"nosuch"}

	err := rc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown arrival model")
	assert.Contains(t, err.Error(), "optional tid probability")
	assert.Contains(t, err.Error(), "peer not set")
	assert.Contains(t, err.Error(), "unknown group")
}

func TestRunCfgYamlRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "run.yaml")
	rc := validRunCfg()
	require.NoError(t, rc.WriteToFile(filename))

	back, err := ReadRunCfg(filename, true, []byte{})
	require.NoError(t, err)

	assert.Equal(t, rc.Name, back.Name)
	assert.Equal(t, rc.RngSeed, back.RngSeed)
	assert.Equal(t, rc.Links, back.Links)
	assert.Equal(t, rc.Flows, back.Flows)
	assert.Equal(t, rc.Groups, back.Groups)
	assert.NoError(t, back.Validate())
}
