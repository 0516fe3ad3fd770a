package models

type Problem struct {
	ID               int64             `db:"id" json:"id"`
	Title            string            `db:"title" json:"title"`
	CPUTimeLimit     *float64          `db:"cpu_time_limit" json:"cpu_time_limit,omitempty"`
	MemoryLimit      *int              `db:"memory_limit" json:"memory_limit,omitempty"`
	VisibleTestCases []VisibleTestCase `db:"-" json:"visibleTestCases"`
	HiddenTestCases  []HiddenTestCase  `db:"-" json:"hiddenTestCases"`
}

type VisibleTestCase struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// HiddenTestCase is only ever sent to the execution engine.
type HiddenTestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}
