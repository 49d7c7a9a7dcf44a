package handlers

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pdfdispatch/internal/infra/logging"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PDF Generation Service</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; padding: 20px; max-width: 800px; margin: 0 auto; }
        h1 { color: #333; }
        h2 { color: #666; }
        code { background-color: #f4f4f4; padding: 2px 5px; border-radius: 3px; }
        pre { background-color: #f4f4f4; padding: 10px; border-radius: 5px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>PDF Generation Service</h1>
    <p>This service provides an API to generate PDFs using various tools.</p>

    <h2>API Usage</h2>
    <h3>Endpoint: <code>/generate_pdf</code></h3>
    <p>Method: POST</p>

    <h4>Parameters:</h4>
    <ul>
        <li><strong>tool</strong> (string, required): The PDF generation tool to use. Options: {{.Tools}}</li>
        <li><strong>input_file</strong> (file, required): The input HTML file to convert to PDF</li>
    </ul>

    <h4>Response:</h4>
    <ul>
        <li>Success: Returns the generated PDF file</li>
        <li>Error: Returns an error message with status code 400 or 500</li>
    </ul>

    <h4>Example cURL command:</h4>
    <pre><code>{{.ExampleCurl}}</code></pre>

    <h3>Endpoint <code>/supported_tools</code></h3>
    <p>Method: GET</p>

    <h4>Response:</h4>
    <p>Returns a list of supported tools.</p>

    <h4>Example cURL command:</h4>
    <pre><code>curl {{.BaseURL}}/supported_tools</code></pre>

    <h2>API Documentation</h2>
    <p>For detailed API documentation in JSON format, send a GET request to the <code>/generate_pdf</code> endpoint.</p>
</body>
</html>
`))

// UsageParameter documents one form field of POST /generate_pdf.
type UsageParameter struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
}

// Usage is the machine-readable contract of POST /generate_pdf.
type Usage struct {
	Endpoint    string                    `json:"endpoint"`
	Method      string                    `json:"method"`
	Parameters  map[string]UsageParameter `json:"parameters"`
	Response    map[string]string         `json:"response"`
	ExampleCurl string                    `json:"example_curl"`
}

func exampleCurl(baseURL string) string {
	return "curl -X POST -F 'tool=weasyprint' -F 'input_file=@/path/to/your/input.html' " +
		baseURL + "/generate_pdf --output output.pdf"
}

// HandleIndex renders the HTML documentation page.
func (h *ConversionHandler) HandleIndex(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct {
		Tools       string
		BaseURL     string
		ExampleCurl string
	}{
		Tools:       strings.Join(h.conv.AvailableTools(), ", "),
		BaseURL:     c.BaseURL(),
		ExampleCurl: exampleCurl(c.BaseURL()),
	})
	if err != nil {
		logging.Error("Failed to render index", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render documentation")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// HandleSupportedTools lists the tools available right now.
func (h *ConversionHandler) HandleSupportedTools(c *fiber.Ctx) error {
	return c.JSON(h.conv.AvailableTools())
}

// HandleUsage describes how to call POST /generate_pdf.
func (h *ConversionHandler) HandleUsage(c *fiber.Ctx) error {
	return c.JSON(Usage{
		Endpoint: "/generate_pdf",
		Method:   fiber.MethodPost,
		Parameters: map[string]UsageParameter{
			"tool": {
				Type:        "string",
				Description: "The PDF generation tool to use",
				Required:    true,
				Options:     h.conv.AvailableTools(),
			},
			"input_file": {
				Type:        "file",
				Description: "The input HTML file to convert to PDF",
				Required:    true,
			},
		},
		Response: map[string]string{
			"success": "Returns the generated PDF file",
			"error":   "Returns an error message with status code 400 or 500",
		},
		ExampleCurl: exampleCurl(c.BaseURL()),
	})
}
