package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/server"
)

// TestMain silences the application logger for cleaner test output.
func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// setupApp builds the full app over a fresh SQLite file with a few products.
func setupApp(t *testing.T, authMode string) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "handlers.db"),
		PoolSize: 5,
	})
	require.NoError(t, err)
	require.NoError(t, database.InitSchema(db))
	t.Cleanup(func() { _ = database.Close(db) })

	products := []models.Product{
		{Name: "Test Laptop", Description: "For testing purposes", Price: 1000.00, Stock: 5, Category: "electronics"},
		{Name: "Test Monitor", Description: "Another test item", Price: 200.00, Stock: 1, Category: "electronics"},
		{Name: "Test Chair", Description: "Sit on it", Price: 150.00, Stock: 0, Category: "furniture"},
	}
	require.NoError(t, db.Create(&products).Error)

	cfg := &config.Config{
		AuthMode:         authMode,
		JWTSecret:        "test_jwt_secret",
		TokenTTL:         time.Hour,
		SessionTTL:       time.Hour,
		CORSAllowOrigins: "http://localhost:3000",
	}
	return server.New(cfg, db, server.Options{}), db
}

// client remembers the credential returned at login, whichever kind it is.
type client struct {
	t      *testing.T
	app    *fiber.App
	token  string
	cookie *http.Cookie
}

func (c *client) do(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	c.t.Helper()
	resp, raw := c.doRaw(method, path, body)
	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (c *client) doRaw(method, path string, body interface{}) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	if c.cookie != nil {
		req.AddCookie(&http.Cookie{Name: c.cookie.Name, Value: c.cookie.Value})
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			c.cookie = ck
		}
	}
	return resp, raw
}

func (c *client) registerAndLogin(username, password string) {
	c.t.Helper()
	creds := map[string]string{"username": username, "password": password}

	resp, _ := c.do(http.MethodPost, "/register", creds)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)

	resp, body := c.do(http.MethodPost, "/login", creds)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	if token, ok := body["token"].(string); ok {
		c.token = token
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}
	creds := map[string]string{"username": "testuser", "password": "password123"}

	// Test Registration
	resp, body := c.do(http.MethodPost, "/register", creds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])

	// Test Duplicate Registration (username)
	resp, body = c.do(http.MethodPost, "/register", creds)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Username already exists", body["message"])

	// Test Missing Fields
	resp, body = c.do(http.MethodPost, "/register", map[string]string{"username": "nopass"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields", body["message"])

	// Test Wrong Password
	resp, body = c.do(http.MethodPost, "/login", map[string]string{"username": "testuser", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])

	// Test Unknown User
	resp, body = c.do(http.MethodPost, "/login", map[string]string{"username": "ghost", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])

	// Test Login
	resp, body = c.do(http.MethodPost, "/login", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "testuser", body["user"])
	assert.NotEmpty(t, body["token"])
}

func TestRegister_PasswordByteLimit(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}

	for _, password := range []string{strings.Repeat("é", 40), strings.Repeat("a", 73)} {
		resp, body := c.do(http.MethodPost, "/register", map[string]string{"username": "accent", "password": password})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Password is too long", body["message"])
	}

	c.registerAndLogin("accent", strings.Repeat("é", 36))
	assert.NotEmpty(t, c.token)
}

func TestLogin_WerkzeugHash(t *testing.T) {
	app, db := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}

	legacy := models.User{
		Username: "olduser",
		Password: "pbkdf2:sha256:1000$salty$8a606f25b1cd20f1b639e996fa58d38d8b99a67c8831f6d3bf70180fe29a5c40",
	}
	require.NoError(t, db.Create(&legacy).Error)

	resp, body := c.do(http.MethodPost, "/login", map[string]string{"username": "olduser", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])

	resp, body = c.do(http.MethodPost, "/login", map[string]string{"username": "olduser", "password": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	var stored models.User
	require.NoError(t, db.First(&stored, legacy.ID).Error)
	assert.True(t, strings.HasPrefix(stored.Password, "$2"), "hash upgraded to bcrypt")

	resp, _ = c.do(http.MethodPost, "/login", map[string]string{"username": "olduser", "password": "secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckAuthAndLogout_JWT(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}

	_, body := c.do(http.MethodGet, "/check_auth", nil)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["authenticated"])

	c.registerAndLogin("alice", "secret")
	_, body = c.do(http.MethodGet, "/check_auth", nil)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "alice", body["username"])

	resp, body := c.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])
}

func TestProtectedRoutesWithoutAuth(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/search"},
		{http.MethodGet, "/products/1"},
		{http.MethodPost, "/purchase"},
		{http.MethodGet, "/purchases"},
		{http.MethodGet, "/chat_history"},
		{http.MethodPost, "/save_chat"},
		{http.MethodPost, "/logout"},
	} {
		resp, body := c.do(route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route.path)
		assert.Equal(t, "Token is missing", body["message"], route.path)
	}

	c.token = "Bearer not.a.token"
	resp, body := c.do(http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", body["message"])
}

func TestSearch(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}
	c.registerAndLogin("searcher", "secret")

	names := func(path string) []string {
		resp, raw := c.doRaw(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		var products []models.Product
		require.NoError(t, json.Unmarshal(raw, &products))
		out := make([]string, 0, len(products))
		for _, p := range products {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Test Laptop", "Test Monitor", "Test Chair"}, names("/search"))
	assert.Equal(t, []string{"Test Laptop"}, names("/search?q=laptop"))
	assert.Equal(t, []string{"Test Chair"}, names("/search?q=sit"))
	assert.Equal(t, []string{"Test Chair"}, names("/search?category=furniture"))
	assert.Equal(t, []string{"Test Monitor", "Test Chair"}, names("/search?min_price=100&max_price=500"))
	assert.Equal(t, []string{"Test Laptop"}, names("/search?min_price=500&max_price=inf"))
	assert.Empty(t, names("/search?q=nothing-matches"))
	assert.Equal(t, []string{"Test Laptop", "Test Monitor", "Test Chair"}, names("/search?min_price=-1"))
	assert.Empty(t, names("/search?max_price=-1"))

	for _, path := range []string{"/search?min_price=abc", "/search?max_price=nan", "/search?min_price=10&max_price=5"} {
		resp, body := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "Invalid price filter", body["message"], path)
	}
}

func TestGetProduct(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}
	c.registerAndLogin("viewer", "secret")

	resp, body := c.do(http.MethodGet, "/products/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test Laptop", body["name"])

	for _, path := range []string{"/products/999", "/products/abc"} {
		resp, body = c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "Product not found", body["message"], path)
	}
}

func TestPurchaseFlow(t *testing.T) {
	app, db := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}
	c.registerAndLogin("buyer", "secret")

	resp, body := c.do(http.MethodPost, "/purchase", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing product ID", body["message"])

	// The monitor has one unit left.
	resp, body = c.do(http.MethodPost, "/purchase", map[string]interface{}{"product_id": 2})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Purchase successful", body["message"])

	resp, body = c.do(http.MethodPost, "/purchase", map[string]interface{}{"product_id": 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Product not available", body["message"])

	// Out of stock from the start, and unknown.
	for _, id := range []int{3, 999} {
		resp, body = c.do(http.MethodPost, "/purchase", map[string]interface{}{"product_id": id})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Product not available", body["message"])
	}

	var monitor models.Product
	require.NoError(t, db.First(&monitor, 2).Error)
	assert.Equal(t, 0, monitor.Stock)

	resp, raw := c.doRaw(http.MethodGet, "/purchases", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var purchases []models.Purchase
	require.NoError(t, json.Unmarshal(raw, &purchases))
	require.Len(t, purchases, 1)
	assert.Equal(t, uint(2), purchases[0].ProductID)
	require.NotNil(t, purchases[0].Product)
	assert.Equal(t, "Test Monitor", purchases[0].Product.Name)
}

func TestConcurrentPurchases(t *testing.T) {
	app, db := setupApp(t, config.AuthModeJWT)
	c := &client{t: t, app: app}
	c.registerAndLogin("crowd", "secret")

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/purchase", bytes.NewReader([]byte(`{"product_id": 1}`)))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", c.token)
			resp, err := app.Test(req, -1)
			if err != nil {
				return
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)

	var laptop models.Product
	require.NoError(t, db.First(&laptop, 1).Error)
	assert.Equal(t, 0, laptop.Stock)

	var count int64
	require.NoError(t, db.Model(&models.Purchase{}).Where("product_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestChat(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeJWT)
	alice := &client{t: t, app: app}
	alice.registerAndLogin("alice", "secret")
	bob := &client{t: t, app: app}
	bob.registerAndLogin("bob", "secret")

	for i, msg := range []map[string]string{
		{"message": "hello", "sender": "user"},
		{"message": "hi, how can I help?", "sender": "bot"},
	} {
		resp, body := alice.do(http.MethodPost, "/save_chat", msg)
		assert.Equal(t, http.StatusOK, resp.StatusCode, i)
		assert.Equal(t, "Chat message saved successfully", body["message"])
	}

	resp, body := alice.do(http.MethodPost, "/save_chat", map[string]string{"message": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields", body["message"])

	resp, body = alice.do(http.MethodPost, "/save_chat", map[string]string{"message": "x", "sender": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid sender", body["message"])

	history := func(c *client) []models.ChatMessage {
		resp, raw := c.doRaw(http.MethodGet, "/chat_history", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var msgs []models.ChatMessage
		require.NoError(t, json.Unmarshal(raw, &msgs))
		return msgs
	}

	msgs := history(alice)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Message)
	assert.Equal(t, models.SenderBot, msgs[1].Sender)
	assert.Empty(t, history(bob))
}

func TestSessionMode(t *testing.T) {
	app, _ := setupApp(t, config.AuthModeSession)
	c := &client{t: t, app: app}

	resp, body := c.do(http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body["message"])

	c.registerAndLogin("sessionuser", "secret")
	assert.Empty(t, c.token)
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)

	_, body = c.do(http.MethodGet, "/check_auth", nil)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "sessionuser", body["username"])

	resp, body = c.do(http.MethodPost, "/purchase", map[string]interface{}{"product_id": 1})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Purchase successful", body["message"])

	resp, body = c.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])

	_, body = c.do(http.MethodGet, "/check_auth", nil)
	assert.Equal(t, false, body["authenticated"])

	resp, _ = c.do(http.MethodGet, "/purchases", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPurchasesAreScopedToCaller(t *testing.T) {
	app, db := setupApp(t, config.AuthModeJWT)
	alice := &client{t: t, app: app}
	alice.registerAndLogin("alice", "secret")
	bob := &client{t: t, app: app}
	bob.registerAndLogin("bob", "secret")

	resp, _ := alice.do(http.MethodPost, "/purchase", map[string]interface{}{"product_id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []models.User
	require.NoError(t, db.WithContext(context.Background()).Order("id").Find(&users).Error)
	require.Len(t, users, 2)

	resp, raw := bob.doRaw(http.MethodGet, "/purchases", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw), fmt.Sprintf("bob (id %d) sees no purchases", users[1].ID))
}
