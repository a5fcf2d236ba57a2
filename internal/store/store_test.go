package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleUpload(id string, at time.Time) *Upload {
	return &Upload{
		FileID:           id,
		OriginalFilename: "report.xlsx",
		StoredPath:       "/tmp/" + id + "_report.xlsx",
		FileSize:         2048,
		Strategy:         "excelize",
		SheetNames:       []string{"Data", "Notes"},
		SheetsJSON:       `{"Data":[{"a":"1"}],"Notes":[]}`,
		UploadedAt:       at,
	}
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	at := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)
	require.NoError(t, s.Insert(ctx, sampleUpload("FILE00000001", at)))

	got, err := s.Get(ctx, "FILE00000001")
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", got.OriginalFilename)
	assert.EqualValues(t, 2048, got.FileSize)
	assert.Equal(t, []string{"Data", "Notes"}, got.SheetNames)
	assert.True(t, got.UploadedAt.Equal(at))
	assert.True(t, got.Active)

	doc, err := got.Document()
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Notes"}, doc.SheetNames())
	assert.Equal(t, 1, doc.RecordCount())
}

func TestInsertDuplicateFails(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Insert(ctx, sampleUpload("FILEDUP00001", time.Now())))
	assert.Error(t, s.Insert(ctx, sampleUpload("FILEDUP00001", time.Now())))
}

func TestListNewestFirstWithoutDocuments(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(ctx, sampleUpload("FILEOLD", base)))
	require.NoError(t, s.Insert(ctx, sampleUpload("FILENEW", base.Add(time.Hour))))
	require.NoError(t, s.Insert(ctx, sampleUpload("FILEMID", base.Add(time.Minute))))

	uploads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 3)
	assert.Equal(t, "FILENEW", uploads[0].FileID)
	assert.Equal(t, "FILEMID", uploads[1].FileID)
	assert.Equal(t, "FILEOLD", uploads[2].FileID)
	assert.Empty(t, uploads[0].SheetsJSON)
	assert.Equal(t, []string{"Data", "Notes"}, uploads[0].SheetNames)

	_, err = uploads[0].Document()
	assert.Error(t, err)
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Insert(ctx, sampleUpload("FILEGONE", time.Now())))
	require.NoError(t, s.Deactivate(ctx, "FILEGONE"))

	_, err := s.Get(ctx, "FILEGONE")
	assert.True(t, errors.Is(err, ErrNotFound))

	uploads, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, uploads)

	assert.ErrorIs(t, s.Deactivate(ctx, "FILEGONE"), ErrNotFound)
	assert.ErrorIs(t, s.Deactivate(ctx, "FILEMISSING"), ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "uploads.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleUpload("FILEKEEP", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Get(ctx, "FILEKEEP")
	assert.NoError(t, err)
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestIsSQLiteBusy(t *testing.T) {
	assert.False(t, isSQLiteBusy(nil))
	assert.True(t, isSQLiteBusy(errors.New("database is locked")))
	assert.True(t, isSQLiteBusy(errors.New("SQLITE_BUSY: retry")))
	assert.False(t, isSQLiteBusy(errors.New("constraint failed")))
}
