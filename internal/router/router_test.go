package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopbuddy/internal/auth"
	"workshopbuddy/internal/cache"
	"workshopbuddy/internal/config"
	"workshopbuddy/internal/db"
	"workshopbuddy/internal/handler"
	"workshopbuddy/internal/metrics"
	"workshopbuddy/internal/repository"
	"workshopbuddy/internal/service"
)

type testAPI struct {
	t      *testing.T
	e      *echo.Echo
	jwt    *auth.JWTService
	tokens *fakeTokenStore
}

// fakeTokenStore stands in for Redis so logout can be exercised.
type fakeTokenStore struct {
	revoked map[string]time.Duration
}

func (f *fakeTokenStore) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	f.revoked[tokenID] = ttl
	return nil
}

func (f *fakeTokenStore) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.revoked[tokenID]
	return ok, nil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	gormDB := db.NewTestDB(t)
	jwtService := auth.NewJWTService("router-test-secret-0123456789abcdef", "WorkshopBuddy", "WorkshopBuddyApp", time.Hour)
	tokens := &fakeTokenStore{revoked: map[string]time.Duration{}}
	m := metrics.New()

	materialRepo := repository.NewMaterialRepository(gormDB)
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, tokens, m)
	materialService := service.NewStockService(materialRepo)
	consumableService := service.NewStockService(repository.NewConsumableRepository(gormDB))
	itemService := service.NewItemService(repository.NewItemRepository(gormDB), materialRepo)

	e := echo.New()
	Register(e, cfg, zerolog.Nop(), m, authService, Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Materials:   handler.NewStockHandler(materialService),
		Consumables: handler.NewStockHandler(consumableService),
		Items:       handler.NewItemHandler(itemService),
	})

	return &testAPI{t: t, e: e, jwt: jwtService, tokens: tokens}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) register(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": username, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[handler.AuthResponse](a.t, rec).Token
}

func TestEndToEndScenario(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "pw1234"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reg := decode[handler.AuthResponse](t, rec)
	assert.Equal(t, "alice", reg.Username)
	require.NotEmpty(t, reg.Token)
	token := reg.Token

	rec = api.do(http.MethodPost, "/api/materials", token, map[string]interface{}{
		"name": "Wood", "quantity": 100, "minimumQuantity": 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wood := decode[handler.StockDto](t, rec)
	assert.False(t, wood.IsLowStock)

	rec = api.do(http.MethodPost, "/api/items", token, map[string]interface{}{"name": "Chair"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	chair := decode[handler.ItemDto](t, rec)
	assert.Empty(t, chair.Materials)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/items/%d/materials", chair.ID), token, map[string]interface{}{
		"materialId": wood.ID, "requiredQuantity": 15,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/items/%d", chair.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[handler.ItemDto](t, rec)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, handler.ItemMaterialDto{
		MaterialID:        wood.ID,
		MaterialName:      "Wood",
		RequiredQuantity:  15,
		AvailableQuantity: 100,
		IsSufficient:      true,
	}, got.Materials[0])

	rec = api.do(http.MethodPut, fmt.Sprintf("/api/materials/%d", wood.ID), token, map[string]interface{}{"quantity": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[handler.StockDto](t, rec)
	assert.Equal(t, "Wood", updated.Name)
	assert.Equal(t, 20, updated.MinimumQuantity)
	assert.True(t, updated.IsLowStock)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/items/%d", chair.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[handler.ItemDto](t, rec)
	assert.Equal(t, 10, got.Materials[0].AvailableQuantity)
	assert.False(t, got.Materials[0].IsSufficient)
}

func TestJSONShape(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("alice", "pw1234")

	rec := api.do(http.MethodPost, "/api/consumables", token, map[string]interface{}{
		"name": "Sandpaper", "quantity": 2, "minimumQuantity": 5, "unit": "sheet",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"id", "name", "description", "quantity", "minimumQuantity", "unit", "isLowStock"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["description"])
	assert.Equal(t, true, raw["isLowStock"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("alice", "pw1234")

	expired := auth.NewJWTService("router-test-secret-0123456789abcdef", "WorkshopBuddy", "WorkshopBuddyApp", time.Nanosecond)
	expiredToken, err := expired.GenerateToken(1, "alice")
	require.NoError(t, err)
	time.Sleep(time.Second + 10*time.Millisecond)

	foreign, err := auth.NewJWTService("some-other-secret-0123456789abcdefg", "WorkshopBuddy", "WorkshopBuddyApp", time.Hour).GenerateToken(1, "alice")
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/materials"},
		{http.MethodPost, "/api/materials"},
		{http.MethodGet, "/api/consumables/1"},
		{http.MethodPut, "/api/items/1"},
		{http.MethodDelete, "/api/items/1/materials/1"},
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, route := range routes {
		for name, bad := range map[string]string{"missing": "", "garbage": "abc.def.ghi", "expired": expiredToken, "foreign": foreign} {
			t.Run(route.method+" "+route.path+" "+name, func(t *testing.T) {
				rec := api.do(route.method, route.path, bad, nil)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				body := decode[map[string]string](t, rec)
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			})
		}
	}

	rec := api.do(http.MethodGet, "/api/materials", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAuthErrors(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice", "pw1234")

	rec := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already exists", decode[map[string]string](t, rec)["message"])

	rec = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]string](t, rec)["code"])

	rec = api.do(http.MethodPost, "/api/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	wrongPassword := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	unknownUser := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "zed", "password": "pw1234"})
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())

	rec = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "pw1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[handler.AuthResponse](t, rec).Username)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("alice", "pw1234")

	rec := api.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[handler.MeResponse](t, rec).Username)

	rec = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, api.tokens.revoked, 1)

	rec = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnershipAndNotFound(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice", "pw1234")
	bob := api.register("bob", "hunter22")

	rec := api.do(http.MethodPost, "/api/materials", alice, map[string]interface{}{"name": "Oak", "quantity": 1, "minimumQuantity": 0})
	require.Equal(t, http.StatusCreated, rec.Code)
	oak := decode[handler.StockDto](t, rec)
	path := fmt.Sprintf("/api/materials/%d", oak.ID)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = api.do(method, path, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Oak")
	}
	rec = api.do(http.MethodPut, path, bob, map[string]interface{}{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/materials/999", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/api/materials/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLinkEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("alice", "pw1234")

	rec := api.do(http.MethodPost, "/api/materials", token, map[string]interface{}{"name": "Screws", "quantity": 40, "minimumQuantity": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	screws := decode[handler.StockDto](t, rec)

	var itemIDs []uint
	for _, name := range []string{"Chair", "Table"} {
		rec = api.do(http.MethodPost, "/api/items", token, map[string]interface{}{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code)
		item := decode[handler.ItemDto](t, rec)
		itemIDs = append(itemIDs, item.ID)

		rec = api.do(http.MethodPost, fmt.Sprintf("/api/items/%d/materials", item.ID), token, map[string]interface{}{
			"materialId": screws.ID, "requiredQuantity": 8,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	linkPath := fmt.Sprintf("/api/items/%d/materials", itemIDs[0])
	rec = api.do(http.MethodPost, linkPath, token, map[string]interface{}{"materialId": screws.ID, "requiredQuantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFLICT", decode[map[string]string](t, rec)["code"])

	rec = api.do(http.MethodPost, linkPath, token, map[string]interface{}{"materialId": 999, "requiredQuantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, linkPath, token, map[string]interface{}{"materialId": screws.ID, "requiredQuantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]string](t, rec)["code"])

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/items/%d/materials/%d", itemIDs[0], screws.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/items/%d/materials/%d", itemIDs[0], screws.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/materials/%d", screws.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/items", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]handler.ItemDto](t, rec)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Empty(t, item.Materials)
	}
}

func TestItemPatchViaHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("alice", "pw1234")

	rec := api.do(http.MethodPost, "/api/items", token, map[string]interface{}{"name": "Desk", "notes": "varnish"})
	require.Equal(t, http.StatusCreated, rec.Code)
	desk := decode[handler.ItemDto](t, rec)
	path := fmt.Sprintf("/api/items/%d", desk.ID)

	rec = api.do(http.MethodPut, path, token, `{"notes": null, "description": "standing"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[handler.ItemDto](t, rec)
	assert.Equal(t, "Desk", got.Name)
	assert.Nil(t, got.Notes)
	require.NotNil(t, got.Description)
	assert.Equal(t, "standing", *got.Description)

	rec = api.do(http.MethodPut, path, token, `{"name": null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	api.register("alice", "pw1234")

	rec = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `workshopbuddy_http_requests_total{method="POST",route="/api/auth/register",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `workshopbuddy_auth_events_total{event="register",outcome="success"} 1`)
}

func TestTokenStoreWithoutRedisDoesNotBlockLogin(t *testing.T) {
	gormDB := db.NewTestDB(t)
	jwtService := auth.NewJWTService("router-test-secret-0123456789abcdef", "WorkshopBuddy", "WorkshopBuddyApp", time.Hour)
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, auth.NewTokenStore(cache.FromConfig(config.RedisConfig{}, zerolog.Nop())), nil)

	e := echo.New()
	Register(e, &config.Config{}, zerolog.Nop(), nil, authService, Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Materials:   handler.NewStockHandler(service.NewStockService(repository.NewMaterialRepository(gormDB))),
		Consumables: handler.NewStockHandler(service.NewStockService(repository.NewConsumableRepository(gormDB))),
		Items:       handler.NewItemHandler(service.NewItemService(repository.NewItemRepository(gormDB), repository.NewMaterialRepository(gormDB))),
	})
	api := &testAPI{t: t, e: e}
	token := api.register("alice", "pw1234")

	rec := api.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Without a denylist the token stays usable until it expires.
	rec = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
