package domain

import "io"

// ConversionRequest is a single upload to be converted by the named tool.
type ConversionRequest struct {
	Tool     string
	Filename string
	Body     io.Reader
}

// ConversionResult captures what a tool run left behind.
type ConversionResult struct {
	ExitSucceeded    bool
	Stdout           string
	Stderr           string
	OutputFileExists bool
}

// Invocation is a fully resolved tool run: argv with placeholders substituted.
type Invocation struct {
	Tool       string
	Program    string
	Args       []string
	InputPath  string
	OutputPath string
}

// RunOutput is the raw outcome of an Invocation.
type RunOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ConvertedPDF is a successful conversion ready to be sent to the client.
type ConvertedPDF struct {
	Tool     string
	Filename string
	Data     []byte
	Pages    int
}
