package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyticsDataset() Dataset {
	return Dataset{
		Title:       "Platform analytics",
		GeneratedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Headers:     []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Total documents", "Value": "42"},
			{"Metric": "Total downloads", "Value": "1337"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(analyticsDataset())
	require.NoError(t, err)
	assert.Equal(t, "Metric,Value\nTotal documents,42\nTotal downloads,1337\n", string(payload))
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(analyticsDataset())
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
