package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save(context.Background(), "notes-abc.pdf", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "notes-abc.pdf", key)

	rc, size, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, int64(len("hello world")), size)
}

func TestLocalStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "doc.pdf", strings.NewReader("payload"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".upload-"), entry.Name())
	}
}

func TestLocalStoreDeleteIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "doc.pdf", strings.NewReader("payload"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "doc.pdf"))
	assert.NoError(t, store.Delete(context.Background(), "doc.pdf"))
}

func TestLocalStoreNestedKey(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	key, err := store.Save(context.Background(), filepath.Join("2026", "08", "doc.pdf"), strings.NewReader("x"))
	require.NoError(t, err)

	_, _, err = store.Open(context.Background(), key)
	assert.NoError(t, err)
}

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", 0)

	token, expiresAt, err := signer.Generate("doc-1", "notes-abc.pdf")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	docID, key, _, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", docID)
	assert.Equal(t, "notes-abc.pdf", key)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", 0)

	token, _, err := signer.Generate("doc-1", "notes-abc.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "0")
	assert.Error(t, err)

	other := NewSignedURLSigner("different-secret", 0)
	_, _, _, err = other.Parse(token)
	assert.Error(t, err)
}
