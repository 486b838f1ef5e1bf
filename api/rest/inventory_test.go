package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stockroom-app/stockroom/api/rest"
	"github.com/stockroom-app/stockroom/inventory"
	mw "github.com/stockroom-app/stockroom/middleware"
	"github.com/stockroom-app/stockroom/model"
	"github.com/stockroom-app/stockroom/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listResponse struct {
	Data []model.Item `json:"data"`
}

func newInventoryRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	sec := testSec()

	authHandler := rest.NewAuthHandler(db, c, sec)
	invHandler := rest.NewInventoryHandler(inventory.NewRepo(db), nil)

	r := gin.New()
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)
	inv := r.Group("/api/inventory", mw.Auth(sec, c))
	{
		inv.GET("", invHandler.List)
		inv.POST("", invHandler.Create)
		inv.PATCH("/:id", invHandler.Update)
		inv.DELETE("/:id", invHandler.Delete)
	}

	token := registerAndLogin(t, r, "inv@example.com", "secret123")
	return r, token
}

func createItem(t *testing.T, r *gin.Engine, token string, body map[string]interface{}) int64 {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/inventory", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Greater(t, resp.Data.ID, int64(0))
	return resp.Data.ID
}

func listItems(t *testing.T, r *gin.Engine, token string) []model.Item {
	t.Helper()
	w := doRequest(r, http.MethodGet, "/api/inventory", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestCreateAndList(t *testing.T) {
	r, token := newInventoryRouter(t)

	id := createItem(t, r, token, map[string]interface{}{
		"name": "Rice", "description": "Bag", "quantity": 5, "price": 12.5,
	})

	items := listItems(t, r, token)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "Rice", items[0].Name)
	assert.Equal(t, "Bag", items[0].Description)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 12.5, items[0].Price)
	assert.Equal(t, items[0].CreatedAt.Unix(), items[0].UpdatedAt.Unix())
}

func TestCreateValidation(t *testing.T) {
	r, token := newInventoryRouter(t)

	// Missing name
	w := doRequest(r, http.MethodPost, "/api/inventory", map[string]interface{}{
		"quantity": 1, "price": 1,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Negative quantity
	w = doRequest(r, http.MethodPost, "/api/inventory", map[string]interface{}{
		"name": "Bad", "quantity": -1, "price": 1,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zero quantity is valid
	w = doRequest(r, http.MethodPost, "/api/inventory", map[string]interface{}{
		"name": "Empty", "quantity": 0, "price": 0,
	}, token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUpdateNameRejected(t *testing.T) {
	r, token := newInventoryRouter(t)
	id := createItem(t, r, token, map[string]interface{}{
		"name": "Sugar", "quantity": 10, "price": 3,
	})

	w := doRequest(r, http.MethodPatch, "/api/inventory/1", map[string]interface{}{
		"name": "Honey", "quantity": 20,
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name field cannot be updated")

	// Stored row untouched.
	items := listItems(t, r, token)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "Sugar", items[0].Name)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestPartialUpdate(t *testing.T) {
	r, token := newInventoryRouter(t)
	id := createItem(t, r, token, map[string]interface{}{
		"name": "Sugar", "description": "Pack", "quantity": 10, "price": 3,
	})
	before := listItems(t, r, token)[0].UpdatedAt

	w := doRequest(r, http.MethodPatch, "/api/inventory/1", map[string]interface{}{
		"price": 20,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Item updated successfully")

	items := listItems(t, r, token)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, 20.0, items[0].Price)
	assert.Equal(t, "Pack", items[0].Description)
	assert.Equal(t, 10, items[0].Quantity)
	assert.GreaterOrEqual(t, items[0].UpdatedAt.Unix(), before.Unix())
}

func TestUpdateUnknownField(t *testing.T) {
	r, token := newInventoryRouter(t)
	createItem(t, r, token, map[string]interface{}{"name": "Salt", "quantity": 1, "price": 1})

	w := doRequest(r, http.MethodPatch, "/api/inventory/1", map[string]interface{}{
		"created_at": "2020-01-01T00:00:00Z",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateInvalidID(t *testing.T) {
	r, token := newInventoryRouter(t)
	w := doRequest(r, http.MethodPatch, "/api/inventory/abc", map[string]interface{}{
		"price": 1,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEmptyBody(t *testing.T) {
	r, token := newInventoryRouter(t)
	createItem(t, r, token, map[string]interface{}{"name": "Salt", "quantity": 1, "price": 1})

	w := doRequest(r, http.MethodPatch, "/api/inventory/1", map[string]interface{}{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateInvalidQuantity(t *testing.T) {
	r, token := newInventoryRouter(t)
	createItem(t, r, token, map[string]interface{}{"name": "Salt", "quantity": 1, "price": 1})

	for _, qty := range []interface{}{-1, 1.5, "three"} {
		w := doRequest(r, http.MethodPatch, "/api/inventory/1", map[string]interface{}{
			"quantity": qty,
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, "quantity %v should be rejected", qty)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	r, token := newInventoryRouter(t)
	createItem(t, r, token, map[string]interface{}{"name": "Flour", "quantity": 2, "price": 2})

	w := doRequest(r, http.MethodDelete, "/api/inventory/1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item deleted successfully")

	assert.Empty(t, listItems(t, r, token))

	// Deleting again still succeeds.
	w = doRequest(r, http.MethodDelete, "/api/inventory/1", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteInvalidID(t *testing.T) {
	r, token := newInventoryRouter(t)
	w := doRequest(r, http.MethodDelete, "/api/inventory/notanumber", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryRequiresAuth(t *testing.T) {
	r, _ := newInventoryRouter(t)
	w := doRequest(r, http.MethodGet, "/api/inventory", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListOrderNewestFirst(t *testing.T) {
	r, token := newInventoryRouter(t)
	createItem(t, r, token, map[string]interface{}{"name": "First", "quantity": 1, "price": 1})
	createItem(t, r, token, map[string]interface{}{"name": "Second", "quantity": 1, "price": 1})

	items := listItems(t, r, token)
	require.Len(t, items, 2)
	assert.Equal(t, "Second", items[0].Name)
	assert.Equal(t, "First", items[1].Name)
}
