// Package catalog owns the in-memory product catalog: loading it from the
// store with a built-in fallback, listing and filtering it, and applying
// admin edits that are written back with a full replace.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists the catalog
type Store interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	ReplaceAll(ctx context.Context, products []models.Product) ([]models.Product, error)
	DeleteOne(ctx context.Context, id string) (bool, error)
}

// Publisher announces catalog replaces to other instances
type Publisher interface {
	PublishCatalogReplaced(ctx context.Context, event *models.CatalogReplacedEvent) error
}

// Service serves the catalog and applies admin changes
type Service struct {
	store      Store
	publisher  Publisher
	instanceID string
	logger     *zap.Logger

	mu            sync.RWMutex
	products      []models.Product
	pending       []string
	usingFallback bool
}

// NewService creates a new catalog service. publisher may be nil.
// The catalog is empty until Load is called.
func NewService(store Store, publisher Publisher) *Service {
	return &Service{
		store:      store,
		publisher:  publisher,
		instanceID: uuid.New().String(),
		logger:     util.Named("catalog"),
	}
}

// InstanceID identifies this process in published events
func (s *Service) InstanceID() string { return s.instanceID }

// Load reads the catalog from the store. When the store fails or has no
// products the built-in catalog is served instead.
func (s *Service) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Load")
	defer span.End()

	start := time.Now()
	products, err := s.store.GetAll(ctx)
	util.CatalogStoreLatency.WithLabelValues("get_all").Observe(time.Since(start).Seconds())

	local := Fallback()
	switch {
	case err != nil:
		s.logger.Warn("Failed to load catalog from store, using fallback", zap.Error(err))
		s.set(local, true)
		util.CatalogFallbackLoadsTotal.Inc()
	case len(products) == 0:
		s.logger.Warn("Catalog store is empty, using fallback")
		s.set(local, true)
		util.CatalogFallbackLoadsTotal.Inc()
	default:
		s.set(EnrichExtras(products, local), false)
		s.logger.Info("Catalog loaded", zap.Int("products", len(products)))
	}
	return nil
}

// Reload is Load under another name, used when another instance changed the store
func (s *Service) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Service) set(products []models.Product, fallback bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.usingFallback = fallback
}

// UsingFallback reports whether the built-in catalog is being served
func (s *Service) UsingFallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usingFallback
}

// Products returns a copy of the catalog
func (s *Service) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.products)
}

// Filter returns the products in category ("Todos" for all)
func (s *Service) Filter(category string) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.products, category)
}

// Lookup finds a product by id
func (s *Service) Lookup(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Product{}, false
}

// Categories lists the categories, including empty ones created by an admin
func (s *Service) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Categories(s.products, s.pending)
}

func (s *Service) editor() *Editor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewEditor(s.products, s.pending)
}

// CreateCategory adds an empty category
func (s *Service) CreateCategory(ctx context.Context, name string) (string, error) {
	_, span := util.StartSpan(ctx, "CatalogService.CreateCategory")
	defer span.End()

	ed := s.editor()
	created, err := ed.CreateCategory(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.pending = ed.Pending()
	s.mu.Unlock()

	s.logger.Info("Category created", zap.String("category", created))
	return created, nil
}

// DeleteCategory removes a category, deleting its products when cascade is set
func (s *Service) DeleteCategory(ctx context.Context, name string, cascade bool) (int, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCategory")
	defer span.End()

	ed := s.editor()
	deleted, err := ed.DeleteCategory(name, cascade)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		if _, err := s.save(ctx, ed); err != nil {
			return 0, err
		}
	} else {
		s.mu.Lock()
		s.pending = ed.Pending()
		s.mu.Unlock()
	}

	s.logger.Info("Category deleted", zap.String("category", name), zap.Int("products_deleted", deleted))
	return deleted, nil
}

// CreateProduct adds a product and saves the catalog
func (s *Service) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	ed := s.editor()
	created, err := ed.CreateProduct(p)
	if err != nil {
		return models.Product{}, err
	}
	saved, err := s.save(ctx, ed)
	if err != nil {
		return models.Product{}, err
	}
	// the store may have replaced a temporary id
	if out, ok := findSaved(saved, created); ok {
		return out, nil
	}
	return created, nil
}

// UpdateProduct patches a product and saves the catalog
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	ed := s.editor()
	updated, err := ed.UpdateProduct(id, patch)
	if err != nil {
		return models.Product{}, err
	}
	saved, err := s.save(ctx, ed)
	if err != nil {
		return models.Product{}, err
	}
	if out, ok := findSaved(saved, updated); ok {
		return out, nil
	}
	return updated, nil
}

// DeleteProduct deletes one product from the store and the catalog
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if _, ok := s.Lookup(id); !ok {
		return apperr.NotFound("product %q not found", id)
	}

	start := time.Now()
	_, err := s.store.DeleteOne(ctx, id)
	util.CatalogStoreLatency.WithLabelValues("delete_one").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// ReplaceAll validates products, makes the store match them exactly and
// serves the store's canonical result from then on
func (s *Service) ReplaceAll(ctx context.Context, products []models.Product) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ReplaceAll")
	defer span.End()

	s.mu.RLock()
	pending := append([]string(nil), s.pending...)
	s.mu.RUnlock()

	ed := NewEditor(nil, pending)
	for _, p := range products {
		if _, err := ed.CreateProduct(p); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, ed)
}

func (s *Service) save(ctx context.Context, ed *Editor) ([]models.Product, error) {
	start := time.Now()
	saved, err := s.store.ReplaceAll(ctx, ed.Products())
	util.CatalogStoreLatency.WithLabelValues("replace_all").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to replace catalog: %w", err)
	}

	s.mu.Lock()
	s.products = cloneAll(saved)
	s.usingFallback = false
	s.pending = NewEditor(saved, ed.Pending()).Pending()
	s.mu.Unlock()

	util.CatalogReplacesTotal.Inc()
	s.logger.Info("Catalog replaced", zap.Int("products", len(saved)))

	if s.publisher != nil {
		event := &models.CatalogReplacedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeCatalogReplaced,
				Timestamp: time.Now(),
				Source:    s.instanceID,
			},
			ProductCount: len(saved),
		}
		if err := s.publisher.PublishCatalogReplaced(ctx, event); err != nil {
			s.logger.Warn("Failed to publish CatalogReplaced event", zap.Error(err))
		}
	}
	return cloneAll(saved), nil
}

// findSaved locates want in the saved catalog by id, or by name and category
// when the store replaced a temporary id
func findSaved(saved []models.Product, want models.Product) (models.Product, bool) {
	for _, p := range saved {
		if p.ID == want.ID {
			return p, true
		}
	}
	for i := len(saved) - 1; i >= 0; i-- {
		if saved[i].Name == want.Name && saved[i].InCategory(want.Category) {
			return saved[i], true
		}
	}
	return models.Product{}, false
}
