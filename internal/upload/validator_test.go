package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sukunslide/docshare-api/pkg/errors"
)

func newTestValidator() *Validator {
	return NewValidator(10<<20, []string{"pdf", "docx", "pptx"})
}

func TestValidateAcceptsAllowedExtension(t *testing.T) {
	v := newTestValidator()

	verdict, err := v.Validate("Notes.PDF", 1024, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", verdict.Extension)
	assert.Empty(t, verdict.MimeWarning)
}

func TestValidateRejectsMissingFilename(t *testing.T) {
	v := newTestValidator()

	_, err := v.Validate("   ", 1024, "application/pdf")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMissingFilename, err)
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	v := newTestValidator()

	_, err := v.Validate("big.pdf", 11<<20, "application/pdf")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrFileTooLarge, err)
}

func TestValidateAllowsUnknownSize(t *testing.T) {
	v := newTestValidator()

	_, err := v.Validate("stream.pdf", -1, "application/pdf")
	assert.NoError(t, err)
}

func TestValidateRejectsUnsupportedExtension(t *testing.T) {
	v := newTestValidator()

	for _, name := range []string{"shell.sh", "archive.zip", "noext"} {
		_, err := v.Validate(name, 10, "")
		assert.Equal(t, apperrors.ErrUnsupportedType, err, name)
	}
}

func TestValidateWarnsOnMimeMismatch(t *testing.T) {
	v := newTestValidator()

	verdict, err := v.Validate("slides.pptx", 2048, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", verdict.MimeWarning)
}

func TestValidateNoWarningOnOctetStream(t *testing.T) {
	v := newTestValidator()

	verdict, err := v.Validate("report.docx", 2048, "application/octet-stream; charset=binary")
	require.NoError(t, err)
	assert.Empty(t, verdict.MimeWarning)
}
