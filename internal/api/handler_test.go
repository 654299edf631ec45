package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/dispatch"
	"storefront/internal/imagestore"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret"

func setupRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	dir := t.TempDir()
	cat := catalog.NewService(store.NewFileStore(filepath.Join(dir, "products.json")), nil)
	require.NoError(t, cat.Load(context.Background()))

	sessions := redisclient.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	settings := dispatch.NewSettings("Bajoneras Burger", "541128422773", "https://wa.me", "$", "en")
	ordering := service.NewOrderingService(sessions, cat, dispatch.NewDispatcher(settings, nil))
	images := imagestore.New(imagestore.Options{Dir: filepath.Join(dir, "public"), PublicBaseURL: "/uploads"})

	h := NewHandler(cat, ordering, images, testPassword, "/uploads")
	h.AddReadinessCheck("redis", sessions.Ping)
	router := gin.New()
	h.SetupRoutes(router)
	return router, h
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(AdminPasswordHeader, testPassword)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndReady(t *testing.T) {
	router, h := setupRouter(t)

	w := do(t, router, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/ready", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["catalog_fallback"])

	h.AddReadinessCheck("db", func(context.Context) error { return errors.New("down") })
	w = do(t, router, http.MethodGet, "/ready", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListProductsAndCategories(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/products?category=postres", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 2)

	w = do(t, router, http.MethodGet, "/api/v1/products", nil, false)
	assert.Len(t, decode(t, w)["products"], 7)

	w = do(t, router, http.MethodGet, "/api/v1/categories", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode(t, w)["categories"].([]interface{})
	require.Len(t, cats, 3)
	assert.Equal(t, "Combos", cats[0].(map[string]interface{})["name"])
	assert.Equal(t, "Postres", cats[2].(map[string]interface{})["name"])
}

func TestOrderingFlowOverHTTP(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/sessions", nil, false)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/sessions/" + decode(t, w)["session_id"].(string)

	w = do(t, router, http.MethodPost, base+"/cart/items", gin.H{
		"product_id": "burger-doble-bacon",
		"extra_ids":  []string{"extra-doble-bacon"},
	}, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	itemID := decode(t, w)["cart_item_id"].(string)

	w = do(t, router, http.MethodPatch, base+"/cart/items/"+itemID+"/quantity", gin.H{"delta": 2}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(46500), decode(t, w)["total_price"])

	w = do(t, router, http.MethodPost, base+"/checkout/next", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, base+"/checkout/next", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["kind"])

	w = do(t, router, http.MethodPut, base+"/checkout/customer", gin.H{
		"customer_name":            "Ana",
		"customer_address":         "Rivadavia 1234",
		"customer_between_streets": "Sarmiento y Belgrano",
		"payment_method":           "cash",
	}, false)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, base+"/checkout/next", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, base+"/checkout/send", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["link"].(string), "https://wa.me/541128422773?text="))

	w = do(t, router, http.MethodGet, base+"/cart", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total_price"])
}

func TestAddItemRejectsOversizedQuantity(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/sessions", nil, false)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/sessions/" + decode(t, w)["session_id"].(string)

	w = do(t, router, http.MethodPost, base+"/cart/items", gin.H{
		"product_id": "burger-doble-bacon",
		"quantity":   100,
	}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/sessions/nope/cart", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["kind"])
}

func TestAdminRequiresPassword(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/admin/products", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.Header.Set(AdminPasswordHeader, "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/admin/products", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminCatalogEditing(t *testing.T) {
	router, h := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "  bebidas frias "}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Bebidas Frias", decode(t, w)["name"])

	w = do(t, router, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "todos"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/admin/products", gin.H{
		"name": "AGUA", "price": 1500, "category": "Bebidas Frias",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.False(t, h.catalog.UsingFallback())

	w = do(t, router, http.MethodPatch, "/api/v1/admin/products/"+id, `{"price": 1800}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1800), decode(t, w)["price"])

	w = do(t, router, http.MethodPatch, "/api/v1/admin/products/"+id, `{"colour": "blue"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/admin/categories/Bebidas%20Frias", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code, "non-empty category needs cascade")

	w = do(t, router, http.MethodDelete, "/api/v1/admin/categories/Bebidas%20Frias?cascade=true", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["products_deleted"])

	_, ok := h.catalog.Lookup(id)
	assert.False(t, ok)
}

func TestAdminReplaceAndDelete(t *testing.T) {
	router, h := setupRouter(t)

	w := do(t, router, http.MethodPut, "/api/v1/admin/products", gin.H{
		"products": []gin.H{
			{"name": "DOBLE BACON", "price": 14000, "category": "Burgers"},
			{"name": "CHOCOTORTA CHICA", "price": 4000, "category": "Postres"},
		},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode(t, w)["products"].([]interface{})
	require.Len(t, saved, 2)
	assert.Len(t, h.catalog.Products(), 2)

	id := saved[1].(map[string]interface{})["id"].(string)
	w = do(t, router, http.MethodDelete, "/api/v1/admin/products/"+id, nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, h.catalog.Products(), 1)

	w = do(t, router, http.MethodDelete, "/api/v1/admin/products/"+id, nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPut, "/api/v1/admin/products", gin.H{
		"products": []gin.H{{"name": "", "price": 100, "category": "Burgers"}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImage(t *testing.T) {
	router, _ := setupRouter(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewNRGBA(image.Rect(0, 0, 8, 8))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "Doble Bacon.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("category", "burgers"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(AdminPasswordHeader, testPassword)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "burgers", res["category"])
	url := res["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/burgers/doble-bacon-"))

	w = do(t, router, http.MethodGet, url, nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, img.Bytes(), w.Body.Bytes())
}

func TestUploadWithoutFile(t *testing.T) {
	router, _ := setupRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("category", "burgers"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(AdminPasswordHeader, testPassword)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
