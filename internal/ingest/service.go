// Package ingest stages, decodes and records uploaded workbooks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"github.com/ukaji3/sheetdoc-go/internal/config"
	"github.com/ukaji3/sheetdoc-go/internal/store"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/output"
)

// Repository is the persistence the service needs. *store.Store implements it.
type Repository interface {
	Insert(ctx context.Context, u *store.Upload) error
	Get(ctx context.Context, fileID string) (*store.Upload, error)
	List(ctx context.Context) ([]store.Upload, error)
	Deactivate(ctx context.Context, fileID string) error
}

// Ingested describes a stored upload.
type Ingested struct {
	FileID   string
	Filename string
	Sheets   []string
	Document models.Document
	Strategy string
}

// Service ingests workbooks into a Repository, staging bytes under an upload directory.
type Service struct {
	repo      Repository
	storage   config.Storage
	decode    config.Decode
	logger    *slog.Logger
	newID     func() string
	writeFile func(name string, data []byte, perm fs.FileMode) error
}

// New builds a service from the loaded configuration.
func New(repo Repository, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		storage:   cfg.Storage,
		decode:    cfg.Decode,
		logger:    logger,
		newID:     NewFileID,
		writeFile: os.WriteFile,
	}
}

// Ingest validates, stages, decodes and records one upload.
// Staged bytes are removed whenever decoding or persistence fails.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*Ingested, error) {
	filename = strings.TrimSpace(filename)
	if err := s.validate(filename, data); err != nil {
		return nil, err
	}

	fileID := s.newID()
	log := s.logger.With(slog.String("file_id", fileID), slog.String("filename", filename))

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "lock", Err: err}
	}
	defer unlock()

	storedPath := filepath.Join(s.storage.UploadDir, storedName(fileID, filename))
	if err := s.writeFile(storedPath, data, 0o644); err != nil {
		// A failed write can leave a truncated file behind.
		s.discard(log, storedPath)
		return nil, &PersistenceError{Op: "stage", Err: err}
	}

	res, err := sheetdoc.Decode(filename, data, sheetdoc.Options{
		NullTokens: s.decode.NullTokens,
		Strategies: s.decode.Strategies,
		MaxSize:    s.storage.MaxFileSize,
		Logger:     log,
	})
	if err != nil {
		s.discard(log, storedPath)
		log.Error("excel processing failed", slog.Any("error", err))
		return nil, err
	}

	sheetsJSON, err := output.ToJSON(res.Document, false)
	if err != nil {
		s.discard(log, storedPath)
		return nil, &PersistenceError{Op: "encode", Err: err}
	}

	upload := &store.Upload{
		FileID:           fileID,
		OriginalFilename: filename,
		StoredPath:       storedPath,
		FileSize:         int64(len(data)),
		Strategy:         res.Strategy,
		SheetNames:       res.SheetNames,
		SheetsJSON:       string(sheetsJSON),
	}
	if err := s.repo.Insert(ctx, upload); err != nil {
		s.discard(log, storedPath)
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	log.Info("upload ingested",
		slog.String("strategy", res.Strategy),
		slog.Int("sheets", len(res.SheetNames)),
		slog.Int("records", res.Document.RecordCount()),
		slog.String("size", humanize.IBytes(uint64(len(data)))))

	return &Ingested{
		FileID:   fileID,
		Filename: filename,
		Sheets:   res.SheetNames,
		Document: res.Document,
		Strategy: res.Strategy,
	}, nil
}

func (s *Service) validate(filename string, data []byte) error {
	if filename == "" {
		return ErrMissingFilename
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(s.storage.AllowedExtensions, ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, filename)
	}
	if len(data) == 0 {
		return sheetdoc.ErrEmptyFile
	}
	if s.storage.MaxFileSize > 0 && int64(len(data)) > s.storage.MaxFileSize {
		return fmt.Errorf("%w: %s exceeds the %s limit", sheetdoc.ErrFileTooLarge,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(s.storage.MaxFileSize)))
	}
	return nil
}

// lockFileName guards the upload directory against concurrent processes.
const lockFileName = ".sheetdoc.lock"

const lockRetryDelay = 50 * time.Millisecond

// lock takes the upload directory lock, creating the directory if needed.
func (s *Service) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.storage.UploadDir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(s.storage.UploadDir, lockFileName))
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire upload lock: %w", err)
	}
	if !ok {
		return nil, errors.New("upload directory is locked")
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("release upload lock", slog.Any("error", err))
		}
	}, nil
}

func (s *Service) discard(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to remove staged upload", slog.String("path", path), slog.Any("error", err))
	}
}

// Get returns a stored upload with its document.
func (s *Service) Get(ctx context.Context, fileID string) (*store.Upload, error) {
	return s.repo.Get(ctx, fileID)
}

// List returns stored uploads, newest first.
func (s *Service) List(ctx context.Context) ([]store.Upload, error) {
	return s.repo.List(ctx)
}

// Delete removes the staged file and marks the upload inactive.
func (s *Service) Delete(ctx context.Context, fileID string) error {
	upload, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return &PersistenceError{Op: "lock", Err: err}
	}
	defer unlock()

	if err := os.Remove(upload.StoredPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &PersistenceError{Op: "remove", Err: err}
	}
	if err := s.repo.Deactivate(ctx, fileID); err != nil {
		return err
	}
	s.logger.Info("upload deleted", slog.String("file_id", fileID))
	return nil
}
