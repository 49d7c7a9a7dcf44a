package dispatch

import (
	"strings"

	"pdfdispatch/internal/domain"
)

// Classify maps a finished run to its outcome. Exit status is checked first,
// then the stdout heuristic, then the presence of the output file.
func Classify(spec ToolSpec, res domain.ConversionResult) error {
	if !res.ExitSucceeded {
		return &domain.ToolExecutionError{Tool: spec.ID, Output: "Error: " + res.Stderr}
	}
	if !spec.IgnoreStdoutErrors && StdoutReportsError(res.Stdout) {
		return &domain.ToolExecutionError{Tool: spec.ID, Output: res.Stdout}
	}
	if !res.OutputFileExists {
		return &domain.MissingOutputError{Tool: spec.ID}
	}
	return nil
}

// StdoutReportsError is a coarse check: any case-insensitive "error" counts,
// including harmless phrases such as "0 errors".
func StdoutReportsError(stdout string) bool {
	return strings.Contains(strings.ToLower(stdout), "error")
}
