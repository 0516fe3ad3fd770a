package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Execution engine status ids.
const (
	EngineStatusInQueue    = 1
	EngineStatusProcessing = 2
	EngineStatusAccepted   = 3
	EngineStatusFailed     = 4
)

type ExecutionRequest struct {
	SourceCode     string   `json:"source_code"`
	LanguageID     int      `json:"language_id"`
	Stdin          string   `json:"stdin"`
	ExpectedOutput string   `json:"expected_output,omitempty"`
	CPUTimeLimit   *float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit    *int     `json:"memory_limit,omitempty"`
}

type ExecutionToken string

type ExecutionStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type ExecutionResult struct {
	Token         ExecutionToken   `json:"token,omitempty"`
	Status        *ExecutionStatus `json:"status"`
	Stdout        string           `json:"stdout"`
	Stderr        string           `json:"stderr"`
	CompileOutput string           `json:"compile_output"`
	Message       string           `json:"message"`
	Time          Seconds          `json:"time"`
	Memory        int              `json:"memory"`
}

// StatusID returns the engine status id, treating a missing status as queued.
func (r ExecutionResult) StatusID() int {
	if r.Status == nil {
		return EngineStatusInQueue
	}
	return r.Status.ID
}

func (r ExecutionResult) StatusDescription() string {
	if r.Status == nil {
		return ""
	}
	return r.Status.Description
}

func (r ExecutionResult) IsTerminal() bool {
	id := r.StatusID()
	return id != EngineStatusInQueue && id != EngineStatusProcessing
}

// Seconds is an execution time reported by the engine either as a JSON
// string ("0.012"), a number or null.
type Seconds float64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			*s = 0
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			*s = 0
			return nil
		}
		*s = Seconds(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*s = 0
		return nil
	}
	*s = Seconds(v)
	return nil
}
