package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// FileStore keeps the catalog in a single JSON file. It follows the same
// id rules as the Postgres store so either can back the catalog.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileSnapshot struct {
	NextID   int64            `json:"next_id"`
	Products []models.Product `json:"products"`
}

// NewFileStore creates a store persisting to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// GetAll returns the stored products, or nil when the file does not exist
func (f *FileStore) GetAll(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.read()
	if err != nil {
		return nil, err
	}
	return snap.Products, nil
}

// ReplaceAll overwrites the file with products, assigning ids to new ones
func (f *FileStore) ReplaceAll(ctx context.Context, products []models.Product) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.read()
	if err != nil {
		return nil, err
	}

	next := snap.NextID
	for _, p := range products {
		if id, ok := NumericID(p.ID); ok && id > next {
			next = id
		}
	}

	saved := make([]models.Product, len(products))
	for i, p := range products {
		saved[i] = p.Clone()
		if id, ok := NumericID(p.ID); ok {
			saved[i].ID = strconv.FormatInt(id, 10)
			continue
		}
		next++
		saved[i].ID = strconv.FormatInt(next, 10)
	}

	if err := f.write(fileSnapshot{NextID: next, Products: saved}); err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteOne removes a product by id
func (f *FileStore) DeleteOne(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.read()
	if err != nil {
		return false, err
	}
	for i, p := range snap.Products {
		if p.ID == id {
			snap.Products = append(snap.Products[:i], snap.Products[i+1:]...)
			return true, f.write(snap)
		}
	}
	return false, nil
}

func (f *FileStore) read() (fileSnapshot, error) {
	var snap fileSnapshot
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, apperr.Collaborator(err, "failed to read catalog file", "check that "+f.path+" is readable")
	}
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, apperr.Collaborator(err, "failed to parse catalog file", "fix or remove "+f.path)
	}
	return snap, nil
}

func (f *FileStore) write(snap fileSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return apperr.Collaborator(err, "failed to create catalog directory", "")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return apperr.Collaborator(err, "failed to encode catalog", "")
	}
	temp := f.path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return apperr.Collaborator(err, "failed to write catalog file", "check free disk space")
	}
	if err := os.Rename(temp, f.path); err != nil {
		return apperr.Collaborator(err, "failed to write catalog file", "")
	}
	return nil
}
