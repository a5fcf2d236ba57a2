package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/output"
)

// ErrNotFound indicates no active upload has the requested id.
var ErrNotFound = errors.New("upload not found")

// timeLayout sorts lexically for UTC timestamps.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Upload is one persisted, decoded workbook.
type Upload struct {
	FileID           string
	OriginalFilename string
	StoredPath       string
	FileSize         int64
	Strategy         string
	SheetNames       []string
	// SheetsJSON is the serialized document; empty in List results.
	SheetsJSON string
	UploadedAt time.Time
	Active     bool
}

// Document reconstitutes the decoded document from SheetsJSON.
func (u *Upload) Document() (models.Document, error) {
	if u.SheetsJSON == "" {
		return models.Document{}, fmt.Errorf("upload %s: document not loaded", u.FileID)
	}
	return output.FromJSON([]byte(u.SheetsJSON))
}

const (
	uploadColumns  = `file_id, original_filename, stored_path, file_size, strategy, sheet_names, sheets_json, uploaded_at, is_active`
	summaryColumns = `file_id, original_filename, stored_path, file_size, strategy, sheet_names, '', uploaded_at, is_active`
)

// Insert stores a new active upload. A zero UploadedAt is set to now.
func (s *Store) Insert(ctx context.Context, u *Upload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now().UTC()
	}
	names := u.SheetNames
	if names == nil {
		names = []string{}
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal sheet names: %w", err)
	}

	_, err = s.execWithRetry(ctx,
		`INSERT INTO uploads (`+uploadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		u.FileID,
		u.OriginalFilename,
		u.StoredPath,
		u.FileSize,
		u.Strategy,
		string(namesJSON),
		u.SheetsJSON,
		u.UploadedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	u.Active = true
	return nil
}

// Get returns the active upload with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, fileID string) (*Upload, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads WHERE file_id = ? AND is_active = 1`, fileID)
	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

// List returns active uploads, newest first, without their documents.
func (s *Store) List(ctx context.Context) ([]Upload, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM uploads WHERE is_active = 1 ORDER BY uploaded_at DESC, file_id`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

// Deactivate marks an active upload as deleted.
func (s *Store) Deactivate(ctx context.Context, fileID string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE uploads SET is_active = 0 WHERE file_id = ? AND is_active = 1`, fileID)
	if err != nil {
		return fmt.Errorf("deactivate upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	return nil
}

func scanUpload(scanner interface{ Scan(dest ...any) error }) (*Upload, error) {
	var (
		u           Upload
		namesJSON   string
		uploadedRaw string
		active      int
	)
	if err := scanner.Scan(
		&u.FileID,
		&u.OriginalFilename,
		&u.StoredPath,
		&u.FileSize,
		&u.Strategy,
		&namesJSON,
		&u.SheetsJSON,
		&uploadedRaw,
		&active,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(namesJSON), &u.SheetNames); err != nil {
		return nil, fmt.Errorf("decode sheet names: %w", err)
	}
	uploadedAt, err := time.Parse(timeLayout, uploadedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at: %w", err)
	}
	u.UploadedAt = uploadedAt
	u.Active = active == 1
	return &u, nil
}
