// Package extract reads text back out of generated PDF reports. The render
// demo and renderer tests use it to check what a reader will see.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"skillgap-backend/internal/shared/storage/object"
)

const mimePDF = "application/pdf"

// ErrNotPDF is returned for payloads without a PDF header.
var ErrNotPDF = errors.New("payload is not a pdf")

// Document is the extracted content of a PDF.
type Document struct {
	Text  string
	Pages int
}

// FromStore opens a stored report and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("extract key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Document{}, fmt.Errorf("extract key=%s: read: %w", key, err)
	}
	doc, err := FromBytes(ctx, raw, mimePDF)
	if err != nil {
		return Document{}, fmt.Errorf("extract key=%s: %w", key, err)
	}
	return doc, nil
}

// FromBytes extracts text and the page count from an in-memory PDF.
func FromBytes(ctx context.Context, data []byte, mimeType string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if mimeType != "" && mimeType != mimePDF {
		return Document{}, fmt.Errorf("unsupported mime type: %s", mimeType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Document{}, ErrNotPDF
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return Document{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Document{}, err
	}
	return Document{Text: buf.String(), Pages: reader.NumPage()}, nil
}
