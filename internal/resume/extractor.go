package resume

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat marks a byte stream that is not a recognizable PDF.
var ErrUnsupportedFormat = errors.New("unsupported document format: not a PDF")

// Extraction failure reasons surfaced to the caller.
const (
	ReasonNoTextLayer = "no_text_layer"
	ReasonUnreadable  = "unreadable_document"
	ReasonUnparseable = "unparseable_model_output"
)

// ExtractionError is a structured, user-visible extraction failure. It is
// returned instead of an empty record so callers can distinguish "no usable
// text" from a legitimately sparse document.
type ExtractionError struct {
	Reason string
	Detail string
}

func (e *ExtractionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("extraction failed: %s", e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s: %s", e.Reason, e.Detail)
}

var pdfMagic = []byte("%PDF-")

// ExtractText pulls the text layer out of a PDF byte stream, concatenated
// in page order. There is no OCR fallback: a scanned document without a
// text layer fails with an ExtractionError so the caller can decide whether
// to reject it or ask for OCR elsewhere.
func ExtractText(data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", ErrUnsupportedFormat
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Reason: ReasonUnreadable, Detail: err.Error()}
	}

	var builder strings.Builder
	for page := 1; page <= reader.NumPage(); page++ {
		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", &ExtractionError{
			Reason: ReasonNoTextLayer,
			Detail: "document contains no extractable text layer",
		}
	}

	return text, nil
}
