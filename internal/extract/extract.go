// Package extract turns uploaded resume files into validated plain text.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// MinLength is the shortest text accepted as a complete resume.
	MinLength = 100
	// MaxLength caps pathological inputs before they reach the pipeline.
	MaxLength = 100_000
	// MaxUploadBytes bounds the multipart upload size.
	MaxUploadBytes = 10 << 20
)

// Error signals a rejected upload or resume text. Handlers map it to a 400.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// FromUpload extracts resume text from an uploaded file based on its
// extension. Only plain-text formats are handled here; binary formats need
// their text extracted client-side first.
func FromUpload(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return fromText(data)
	case ".pdf", ".docx":
		return "", errorf("binary resume formats are not supported; convert %s to .txt or .md, or paste the text directly", filepath.Ext(filename))
	default:
		return "", errorf("unsupported file type %q (supported: .txt, .md)", filepath.Ext(filename))
	}
}

func fromText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errorf("could not decode text file; ensure it is UTF-8 encoded")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errorf("text file is empty")
	}
	return text, nil
}

// ValidateText trims and bounds-checks resume text regardless of how it
// arrived.
func ValidateText(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", errorf("resume text is empty")
	}
	if len(cleaned) < MinLength {
		return "", errorf("resume text is too short (%d chars); provide a complete resume (min %d chars)", len(cleaned), MinLength)
	}
	if len(cleaned) > MaxLength {
		return "", errorf("resume text is too long (%d chars, max %d)", len(cleaned), MaxLength)
	}
	return cleaned, nil
}
