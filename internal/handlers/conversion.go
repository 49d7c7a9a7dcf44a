package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pdfdispatch/internal/domain"
	"pdfdispatch/internal/infra/logging"
)

const (
	msgUnsupportedTool = "Unsupported tool"
	msgUnexpected      = "An unexpected error occurred"

	headerPageCount = "X-PDF-Page-Count"
)

// Converter is the dispatcher as seen by the HTTP layer.
type Converter interface {
	Convert(ctx context.Context, req domain.ConversionRequest) (*domain.ConvertedPDF, error)
	AvailableTools() []string
}

// ConversionHandler serves the documentation pages and the conversion endpoint.
type ConversionHandler struct {
	conv Converter
}

func NewConversionHandler(conv Converter) *ConversionHandler {
	return &ConversionHandler{conv: conv}
}

// HandleGenerate converts the uploaded input_file with the requested tool and
// returns the PDF as an attachment. Failures are plain-text bodies.
func (h *ConversionHandler) HandleGenerate(c *fiber.Ctx) (err error) {
	tool := c.FormValue("tool")
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Unexpected error in generate_pdf", "tool", tool, "panic", r)
			err = sendText(c, fiber.StatusInternalServerError, msgUnexpected)
		}
	}()

	req := domain.ConversionRequest{Tool: tool}
	if fh, ferr := c.FormFile("input_file"); ferr == nil {
		f, oerr := fh.Open()
		if oerr != nil {
			return h.respondError(c, tool, oerr)
		}
		defer f.Close()
		req.Filename = fh.Filename
		req.Body = f
	}

	pdf, err := h.conv.Convert(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, tool, err)
	}

	logging.Info("PDF generated", "tool", pdf.Tool, "filename", pdf.Filename, "bytes", len(pdf.Data), "request_id", requestID(c))

	c.Attachment(pdf.Filename)
	c.Set(fiber.HeaderContentType, "application/pdf")
	if pdf.Pages > 0 {
		c.Set(headerPageCount, strconv.Itoa(pdf.Pages))
	}
	return c.Send(pdf.Data)
}

// respondError logs err with the tool name and maps it to a status and a
// client-safe message.
func (h *ConversionHandler) respondError(c *fiber.Ctx, tool string, err error) error {
	var execErr *domain.ToolExecutionError
	var missing *domain.MissingOutputError
	rid := requestID(c)

	switch {
	case errors.Is(err, domain.ErrMissingTool), errors.Is(err, domain.ErrMissingInput):
		logging.Warn("Malformed conversion request", "tool", tool, "error", err, "request_id", rid)
		return sendText(c, fiber.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, domain.ErrUnsupportedTool):
		logging.Error("Unsupported tool", "tool", tool, "request_id", rid)
		return sendText(c, fiber.StatusBadRequest, msgUnsupportedTool)
	case errors.As(err, &execErr):
		logging.Error("Error during PDF generation", "tool", tool, "output", execErr.Output, "request_id", rid)
		return sendText(c, fiber.StatusInternalServerError, execErr.Output)
	case errors.As(err, &missing):
		logging.Error(missing.Error(), "tool", tool, "request_id", rid)
		return sendText(c, fiber.StatusInternalServerError, missing.Error())
	case errors.Is(err, domain.ErrOutputTooLarge):
		logging.Error("PDF exceeds allowed size", "tool", tool, "request_id", rid)
		return sendText(c, fiber.StatusRequestEntityTooLarge, err.Error())
	default:
		logging.Error("Unexpected error in generate_pdf", "tool", tool, "error", err, "request_id", rid)
		return sendText(c, fiber.StatusInternalServerError, msgUnexpected)
	}
}

func sendText(c *fiber.Ctx, status int, msg string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(msg)
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
