package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock store ---

type mockStore struct {
	products []models.Product
	nextID   int
	getErr   error
	saveErr  error
	deleted  []string
}

func (m *mockStore) GetAll(_ context.Context) ([]models.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return cloneAll(m.products), nil
}

func (m *mockStore) ReplaceAll(_ context.Context, products []models.Product) ([]models.Product, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	out := cloneAll(products)
	for i := range out {
		if _, err := strconv.Atoi(out[i].ID); err != nil {
			m.nextID++
			out[i].ID = strconv.Itoa(100 + m.nextID)
		}
	}
	m.products = cloneAll(out)
	return out, nil
}

func (m *mockStore) DeleteOne(_ context.Context, id string) (bool, error) {
	m.deleted = append(m.deleted, id)
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type mockPublisher struct {
	events []*models.CatalogReplacedEvent
}

func (m *mockPublisher) PublishCatalogReplaced(_ context.Context, event *models.CatalogReplacedEvent) error {
	m.events = append(m.events, event)
	return errors.New("broker unavailable")
}

func storedCatalog() []models.Product {
	return []models.Product{
		{ID: "1", Name: "COMBO", Price: 16000, Category: "Combos", IsCombo: true},
		{ID: "2", Name: "DOBLE BACON", Price: 14000, Category: "Burgers"},
		{ID: "3", Name: "Smash Nueva", Price: 15000, Category: "Burgers"},
		{ID: "4", Name: "Coca", Price: 2000, Category: "Bebidas"},
		{ID: "5", Name: "CHOCOTORTA CHICA", Price: 4000, Category: "Postres"},
	}
}

func loadedService(t *testing.T) (*Service, *mockStore, *mockPublisher) {
	t.Helper()
	store := &mockStore{products: storedCatalog(), nextID: 0}
	pub := &mockPublisher{}
	svc := NewService(store, pub)
	require.NoError(t, svc.Load(context.Background()))
	return svc, store, pub
}

// --- Loading ---

func TestLoadFallsBack(t *testing.T) {
	for name, store := range map[string]*mockStore{
		"error": {getErr: errors.New("connection refused")},
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(store, nil)
			require.NoError(t, svc.Load(context.Background()))
			assert.True(t, svc.UsingFallback())
			assert.Len(t, svc.Products(), len(Fallback()))
		})
	}
}

func TestLoadEnrichesExtras(t *testing.T) {
	svc, _, _ := loadedService(t)
	assert.False(t, svc.UsingFallback())

	byName, ok := svc.Lookup("2")
	require.True(t, ok)
	assert.Len(t, byName.Extras, 6, "matched by name")

	byCategory, ok := svc.Lookup("3")
	require.True(t, ok)
	assert.Len(t, byCategory.Extras, 6, "inherited from category")

	drink, _ := svc.Lookup("4")
	assert.Empty(t, drink.Extras)
}

func TestEnrichExtrasKeepsOwnExtras(t *testing.T) {
	own := []models.Extra{{ID: "x", Name: "Huevo", Price: 800}}
	out := EnrichExtras([]models.Product{{ID: "burger-oklahoma", Name: "OKLAHOMA", Category: "Burgers", Extras: own}}, Fallback())
	assert.Equal(t, own, out[0].Extras)
}

// --- Listing ---

func TestCategoriesOrder(t *testing.T) {
	products := []models.Product{
		{Category: "Bebidas"}, {Category: "Postres"}, {Category: "Promos"},
		{Category: "Burgers"}, {Category: "Combos"}, {Category: "burgers"},
	}
	cats := Categories(products, []string{"Salsas"})

	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Combos", "Burgers", "Postres", "Bebidas", "Promos", "Salsas"}, names)
	assert.Equal(t, 2, cats[1].ProductCount)
	assert.True(t, cats[5].Empty)
}

func TestFilter(t *testing.T) {
	svc, _, _ := loadedService(t)

	assert.Len(t, svc.Filter(models.AllCategories), 5)
	assert.Len(t, svc.Filter(""), 5)
	assert.Len(t, svc.Filter("burgers"), 2)
	assert.Empty(t, svc.Filter("Pizzas"))
}

func TestNormalizeCategoryName(t *testing.T) {
	assert.Equal(t, "Bebidas Frías", NormalizeCategoryName("  bebidas   FRÍAS "))
	assert.Equal(t, "", NormalizeCategoryName("   "))
}

// --- Admin editing ---

func TestCreateCategory(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	name, err := svc.CreateCategory(ctx, "  salsas caseras")
	require.NoError(t, err)
	assert.Equal(t, "Salsas Caseras", name)

	_, err = svc.CreateCategory(ctx, "SALSAS CASERAS")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.CreateCategory(ctx, "burgers")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.CreateCategory(ctx, "todos")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	cats := svc.Categories()
	last := cats[len(cats)-1]
	assert.Equal(t, "Salsas Caseras", last.Name)
	assert.True(t, last.Empty)
}

func TestDeleteCategory(t *testing.T) {
	svc, store, _ := loadedService(t)
	ctx := context.Background()

	_, err := svc.DeleteCategory(ctx, "Burgers", false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Len(t, svc.Filter("Burgers"), 2)

	deleted, err := svc.DeleteCategory(ctx, "burgers", true)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Empty(t, svc.Filter("Burgers"))
	assert.Len(t, store.products, 3)

	_, err = svc.CreateCategory(ctx, "Salsas")
	require.NoError(t, err)
	deleted, err = svc.DeleteCategory(ctx, "salsas", false)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	_, err = svc.DeleteCategory(ctx, "Pizzas", true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateProductIntoPendingCategory(t *testing.T) {
	svc, _, pub := loadedService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, "salsas")
	require.NoError(t, err)

	created, err := svc.CreateProduct(ctx, models.Product{Name: "Cheddar extra", Price: 900, Category: "Salsas"})
	require.NoError(t, err)
	assert.Equal(t, "101", created.ID)

	for _, c := range svc.Categories() {
		if c.Name == "Salsas" {
			assert.False(t, c.Empty)
		}
	}
	require.Len(t, pub.events, 1)
	assert.Equal(t, svc.InstanceID(), pub.events[0].Source)
	assert.Equal(t, 6, pub.events[0].ProductCount)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, models.Product{Name: "", Price: -1, Category: "Todos"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "price must not be negative")

	_, err = svc.CreateProduct(ctx, models.Product{ID: "2", Name: "dup", Category: "Burgers"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateProduct(t *testing.T) {
	svc, store, _ := loadedService(t)
	ctx := context.Background()

	patch, err := DecodePatch(strings.NewReader(`{"price": 15500, "allow_duplicate_burgers": false}`))
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, "1", patch)
	require.NoError(t, err)
	assert.Equal(t, int64(15500), updated.Price)
	assert.Equal(t, "COMBO", updated.Name)
	require.NotNil(t, updated.AllowDuplicateBurgers)
	assert.False(t, *updated.AllowDuplicateBurgers)
	assert.Equal(t, int64(15500), store.products[0].Price)

	_, err = svc.UpdateProduct(ctx, "missing", patch)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDecodePatchRejectsUnknownFields(t *testing.T) {
	_, err := DecodePatch(strings.NewReader(`{"precio": 1}`))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = DecodePatch(strings.NewReader(``))
	assert.Error(t, err)
}

func TestDeleteProduct(t *testing.T) {
	svc, store, _ := loadedService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteProduct(ctx, "4"))
	_, ok := svc.Lookup("4")
	assert.False(t, ok)
	assert.Equal(t, []string{"4"}, store.deleted)

	err := svc.DeleteProduct(ctx, "4")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReplaceAllFullSync(t *testing.T) {
	svc, store, _ := loadedService(t)
	ctx := context.Background()

	submitted := []models.Product{
		{ID: "1", Name: "COMBO renamed", Price: 17000, Category: "Combos", IsCombo: true},
		{ID: "5", Name: "CHOCOTORTA CHICA", Price: 4500, Category: "Postres"},
		{Name: "Flan", Price: 3000, Category: "Postres"},
	}
	saved, err := svc.ReplaceAll(ctx, submitted)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	ids := []string{}
	for _, p := range store.products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "5", "101"}, ids)
	assert.Equal(t, saved, svc.Products())
	assert.Equal(t, "COMBO renamed", saved[0].Name)
}

func TestReplaceAllKeepsCatalogOnStoreFailure(t *testing.T) {
	svc, store, _ := loadedService(t)
	store.saveErr = apperr.Collaborator(errors.New("timeout"), "catalog store unavailable", "")

	_, err := svc.ReplaceAll(context.Background(), []models.Product{{Name: "x", Category: "Postres"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindCollaborator))
	assert.Len(t, svc.Products(), 5)
}
