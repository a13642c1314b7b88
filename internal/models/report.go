package models

import (
	"encoding/json"
	"time"
)

// RunState labels the state machine phases. Terminal states are recorded in
// the crawl report.
type RunState string

const (
	StateResuming        RunState = "RESUMING"
	StateDiscovering     RunState = "DISCOVERING"
	StateRecovering      RunState = "RECOVERING"
	StateBoundaryReached RunState = "BOUNDARY_REACHED"
	StateExhausted       RunState = "EXHAUSTED"
	StateTimeLimit       RunState = "TIME_LIMIT_REACHED"
	StateFinalizing      RunState = "FINALIZING"
)

// IsTerminal reports whether the state ends discovery.
func (s RunState) IsTerminal() bool {
	switch s {
	case StateBoundaryReached, StateExhausted, StateTimeLimit:
		return true
	}
	return false
}

// CrawlReport is the JSON summary written at the end of a run.
type CrawlReport struct {
	RunID         string   `json:"run_id"`
	SourceAddress string   `json:"source_address"`
	Namespace     string   `json:"namespace"`
	FinalState    RunState `json:"final_state"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // seconds

	Stats RunStats `json:"stats"`

	// Output paths
	OutputDir  string `json:"output_dir"`
	RecordFile string `json:"record_file"`

	// Config snapshot
	Config CrawlConfig `json:"config"`
}

// ToJSON serializes the report.
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON deserializes the report.
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
