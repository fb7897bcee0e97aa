package importer

import (
	"time"

	"github.com/teranos/bulkgraph/store"
)

// AnyName keys the wildcard bucket in report counts
const AnyName = "*"

// Report summarizes a finished import
type Report struct {
	RunID         string         `yaml:"run_id" json:"run_id"`
	StoreDir      string         `yaml:"store" json:"store"`
	Started       time.Time      `yaml:"started" json:"started"`
	Duration      time.Duration  `yaml:"duration" json:"duration"`
	Strategy      Strategy       `yaml:"strategy" json:"strategy"`
	Memory        MemoryEstimate `yaml:"memory" json:"memory"`
	Nodes         int64          `yaml:"nodes" json:"nodes"`
	Relationships int64          `yaml:"relationships" json:"relationships"`
	Properties    int64          `yaml:"properties" json:"properties"`
	DenseNodes    int64          `yaml:"dense_nodes" json:"dense_nodes"`

	// NodeCounts by label name, AnyName for all nodes
	NodeCounts map[string]int64 `yaml:"node_counts" json:"node_counts"`
	// RelationshipCounts by type name, AnyName for all relationships
	RelationshipCounts map[string]int64 `yaml:"relationship_counts" json:"relationship_counts"`

	Stages []StageReport `yaml:"stages" json:"stages"`
}

// StageReport is how long one stage ran
type StageReport struct {
	Name    string        `yaml:"name" json:"name"`
	Elapsed time.Duration `yaml:"elapsed" json:"elapsed"`
}

func tokenName(tokens *store.TokenRepository, id int32) string {
	if id < 0 {
		return AnyName
	}
	if name, ok := tokens.Name(id); ok {
		return name
	}
	return ""
}

// fillCounts resolves token ids of the counts store into names
func (r *Report) fillCounts(st *store.BatchingStore) {
	r.NodeCounts = map[string]int64{}
	for label, count := range st.Counts().NodeCounts() {
		r.NodeCounts[tokenName(st.Labels(), label)] = count
	}
	r.RelationshipCounts = map[string]int64{}
	for key, count := range st.Counts().RelationshipCounts() {
		if key.StartLabel != store.AnyLabel || key.EndLabel != store.AnyLabel {
			continue
		}
		r.RelationshipCounts[tokenName(st.RelationshipTypes(), key.Type)] = count
	}
}
