package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedTool signals that the requested tool is unknown or not installed.
	ErrUnsupportedTool = errors.New("unsupported tool")
	// ErrMissingTool signals that the request did not name a tool.
	ErrMissingTool = errors.New("missing tool parameter")
	// ErrMissingInput signals that the request carried no input file.
	ErrMissingInput = errors.New("missing input_file upload")
	// ErrOutputTooLarge signals that the produced PDF exceeds the configured limit.
	ErrOutputTooLarge = errors.New("PDF exceeds allowed size")
)

// ToolExecutionError is returned when a tool exits nonzero, reports an error on
// stdout or times out. Output carries the diagnostic text shown to the client.
type ToolExecutionError struct {
	Tool   string
	Output string
}

func (e *ToolExecutionError) Error() string {
	return e.Output
}

// MissingOutputError is returned when a tool reported success but left no PDF behind.
type MissingOutputError struct {
	Tool string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("Error: %s did not generate a PDF file", e.Tool)
}
