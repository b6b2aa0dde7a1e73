package upload

import (
	"path/filepath"
	"strings"

	"github.com/sukunslide/docshare-api/pkg/errors"
)

// mimeByExtension maps an allowed extension to the content types commonly
// sent by browsers for it. A mismatch is reported as a warning, not an
// error; browsers are unreliable about office formats.
var mimeByExtension = map[string][]string{
	"pdf":  {"application/pdf"},
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"ppt":  {"application/vnd.ms-powerpoint"},
	"pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	"xls":  {"application/vnd.ms-excel"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

// Verdict is the outcome of validating an incoming file.
type Verdict struct {
	// Extension is the normalized (lowercase, dotless) file extension.
	Extension string
	// MimeWarning is set when the declared content type does not match the
	// extension. The upload still proceeds.
	MimeWarning string
}

// Validator checks incoming files against the configured size ceiling and
// extension allow-list.
type Validator struct {
	maxSize    int64
	extensions map[string]struct{}
}

// NewValidator builds a Validator. Extensions are normalized to lowercase
// without the leading dot.
func NewValidator(maxSize int64, allowed []string) *Validator {
	exts := make(map[string]struct{}, len(allowed))
	for _, e := range allowed {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts[e] = struct{}{}
		}
	}
	return &Validator{maxSize: maxSize, extensions: exts}
}

// Validate checks filename, declared size and declared content type.
// A size of -1 means unknown; the size ceiling is then enforced by the
// caller while streaming.
func (v *Validator) Validate(filename string, size int64, contentType string) (*Verdict, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, errors.ErrMissingFilename
	}
	if v.maxSize > 0 && size > v.maxSize {
		return nil, errors.ErrFileTooLarge
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := v.extensions[ext]; !ok {
		return nil, errors.ErrUnsupportedType
	}

	verdict := &Verdict{Extension: ext}
	if contentType != "" {
		declared := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
		if !mimeMatches(ext, declared) {
			verdict.MimeWarning = declared
		}
	}
	return verdict, nil
}

// MaxSize returns the configured size ceiling in bytes.
func (v *Validator) MaxSize() int64 { return v.maxSize }

func mimeMatches(ext, declared string) bool {
	for _, m := range mimeByExtension[ext] {
		if m == declared {
			return true
		}
	}
	// octet-stream is what browsers fall back to; do not warn on it
	return declared == "application/octet-stream"
}
