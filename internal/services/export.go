package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jjudge-oj/userdir/types"
)

const exportKeyPrefix = "exports/users-"

// ErrExportDisabled is returned when no object store is configured.
var ErrExportDisabled = errors.New("export storage is not configured")

// ObjectStore is the subset of object storage used by exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// ExportResult describes an uploaded directory snapshot.
type ExportResult struct {
	Bucket string
	Key    string
	Count  int
	Bytes  int64
}

type exportDocument struct {
	ExportedAt time.Time    `json:"exportedAt"`
	TotalCount int          `json:"totalCount"`
	Users      []types.User `json:"users"`
}

// ExportService uploads JSON snapshots of the directory to object storage.
type ExportService struct {
	users   *UserService
	storage ObjectStore
	now     func() time.Time
}

// NewExportService constructs an ExportService. A nil store disables exports.
func NewExportService(users *UserService, store ObjectStore) *ExportService {
	return &ExportService{users: users, storage: store, now: time.Now}
}

// Export pages through every user in id order and uploads the result.
func (s *ExportService) Export(ctx context.Context) (ExportResult, error) {
	if s.storage == nil {
		return ExportResult{}, ErrExportDisabled
	}

	exportedAt := s.now().UTC()
	doc := exportDocument{ExportedAt: exportedAt, Users: []types.User{}}

	offset := 0
	for {
		page, err := s.users.GetUsers(ctx, ListParams{Limit: MaxPageSize, Offset: offset})
		if err != nil {
			return ExportResult{}, fmt.Errorf("read users: %w", err)
		}
		doc.Users = append(doc.Users, page.Users...)
		doc.TotalCount = page.TotalCount
		offset += len(page.Users)
		if len(page.Users) == 0 || offset >= page.TotalCount {
			break
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := exportKeyPrefix + exportedAt.Format("20060102T150405Z") + ".json"
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	return ExportResult{
		Bucket: s.storage.Bucket(),
		Key:    key,
		Count:  len(doc.Users),
		Bytes:  int64(len(data)),
	}, nil
}
