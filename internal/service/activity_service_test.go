package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukunslide/docshare-api/internal/models"
)

type mockActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (m *mockActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityRepo) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, nil
}

func TestRecordPersistsStructuredDetail(t *testing.T) {
	repo := &mockActivityRepo{}
	svc := NewActivityService(repo, nil, nil, ActivityConfig{Workers: 1, BufferSize: 4})
	svc.Start(context.Background())

	uid := "admin-1"
	svc.Record(&uid, models.ActivityDocumentApprove, map[string]string{"document_id": "d1"})
	svc.Stop()

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, models.ActivityDocumentApprove, entry.Action)
	assert.JSONEq(t, `{"document_id":"d1"}`, string(entry.Detail))

	// The detail column binds as json text, not bytea.
	value, err := entry.Detail.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_id":"d1"}`, string(value.([]byte)))

	// And the API response carries the structured payload, not base64.
	body, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"detail":{"document_id":"d1"}`)
}

func TestRecordedEntriesSurviveShutdown(t *testing.T) {
	repo := &mockActivityRepo{}
	svc := NewActivityService(repo, nil, nil, ActivityConfig{Workers: 1, BufferSize: 16})
	svc.Start(context.Background())

	uid := "admin-1"
	for i := 0; i < 5; i++ {
		svc.Record(&uid, models.ActivityDocumentUpdate, map[string]int{"seq": i})
	}
	svc.Stop()

	assert.Len(t, repo.entries, 5)
}
