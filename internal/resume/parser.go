package resume

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/credx/credx-matcher/internal/ai"
)

// DefaultMaxUploadBytes bounds the accepted document size to keep
// extraction cost predictable.
const DefaultMaxUploadBytes = 10 << 20

// ErrDocumentTooLarge rejects uploads above the configured maximum.
var ErrDocumentTooLarge = errors.New("document exceeds the maximum upload size")

// ErrNoDocument rejects an empty upload.
var ErrNoDocument = errors.New("no document provided")

// Replaceable for tests.
var extractText = ExtractText

// Parser runs the full resume pipeline: size check, text extraction,
// structured extraction. It holds no per-call state.
type Parser struct {
	structured     ai.Extractor
	maxUploadBytes int
	logger         *zap.Logger
}

func NewParser(structured ai.Extractor, maxUploadBytes int, logger *zap.Logger) *Parser {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		structured:     structured,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Parse converts an uploaded PDF into a validated candidate record. Every
// failure path returns a typed error; a record that fails validation is
// never returned.
func (p *Parser) Parse(ctx context.Context, data []byte) (*ai.Extraction, error) {
	if len(data) == 0 {
		return nil, ErrNoDocument
	}
	if len(data) > p.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, len(data), p.maxUploadBytes)
	}

	text, err := extractText(data)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("document text extracted",
		zap.Int("document_bytes", len(data)),
		zap.Int("text_length", len(text)),
	)

	extraction, err := p.structured.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, ai.ErrUnparseableOutput) {
			return nil, &ExtractionError{Reason: ReasonUnparseable, Detail: err.Error()}
		}
		return nil, err
	}

	p.logger.Info("resume parsed",
		zap.String("status", string(extraction.Status)),
		zap.Int("skills", len(extraction.Resume.Skills)),
		zap.Float64("raw_confidence", extraction.Resume.RawConfidence),
	)

	return extraction, nil
}
