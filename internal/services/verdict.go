package services

import (
	"codejudge/internal/models"
	"fmt"
	"strings"
)

// AggregateResults reduces ordered per-test-case results into one verdict.
// Every result is counted; a definite failure anywhere wins over other
// non-matching outcomes.
func AggregateResults(results []models.ExecutionResult) models.Verdict {
	verdict := models.Verdict{Status: models.StatusAccepted}
	if len(results) == 0 {
		verdict.Status = models.StatusPending
		verdict.CompilerErrors = "no test cases were executed"
		return verdict
	}

	var diagnostics []string
	failed := false

	for i, r := range results {
		switch r.StatusID() {
		case models.EngineStatusAccepted:
			verdict.TestcasePassed++
			verdict.RunTime += float64(r.Time)
			if r.Memory > verdict.MemoryUsed {
				verdict.MemoryUsed = r.Memory
			}
		case models.EngineStatusFailed:
			failed = true
			verdict.Status = models.StatusError
			diagnostics = append(diagnostics, fmt.Sprintf("Test case %d: %s", i+1, failureDetail(r)))
		default:
			if !failed {
				verdict.Status = models.StatusPending
			}
			diagnostics = append(diagnostics, fmt.Sprintf("Test case %d: %s", i+1, nonMatchDetail(r)))
		}
	}

	verdict.CompilerErrors = strings.Join(diagnostics, "\n")
	return verdict
}

func failureDetail(r models.ExecutionResult) string {
	for _, s := range []string{r.Stderr, r.CompileOutput, r.Message} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	if d := r.StatusDescription(); d != "" {
		return d
	}
	return "execution failed"
}

func nonMatchDetail(r models.ExecutionResult) string {
	label := r.StatusDescription()
	if label == "" {
		label = fmt.Sprintf("status %d", r.StatusID())
	}
	for _, s := range []string{r.Stderr, r.CompileOutput, r.Message} {
		if s = strings.TrimSpace(s); s != "" {
			return label + ": " + s
		}
	}
	return label
}
