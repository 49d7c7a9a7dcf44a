package dispatch

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a config dir under the service user's home.
	model.ConfigPath = "disable"
}

// PageCount reads the page count of an in-memory PDF.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), nil)
}
