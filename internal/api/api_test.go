package api

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/danicaoo/musicShop/internal/auth"
	"github.com/danicaoo/musicShop/internal/db"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	DB     *sql.DB
	Tokens *auth.Tokens
}

func newTestServer(t *testing.T, loginRequests int) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	tokens, err := auth.NewTokens(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	router := NewRouter(Options{
		DB:            database,
		Tokens:        tokens,
		CORSOrigins:   []string{"http://localhost:3000"},
		LoginRequests: loginRequests,
		LoginWindow:   time.Minute,
		Metrics:       true,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, DB: database, Tokens: tokens}
}

// setupTestServer starts a server with an admin account and returns the
// admin's token.
func setupTestServer(t *testing.T) (*testServer, string) {
	t.Helper()
	ts := newTestServer(t, 0)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), ts.DB, "admin", string(hash), model.RoleAdmin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	resp := post(t, ts.URL+"/api/auth/login", map[string]string{"username": "admin", "password": "password"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	decode(t, resp, &loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return ts, loginResp.Token
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader = bytes.NewReader(nil)
	switch b := body.(type) {
	case nil:
	case string:
		bodyReader = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request and returns the response.
func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// expectStatus checks the status and returns the error message, if any.
func expectStatus(t *testing.T, resp *http.Response, want int) string {
	t.Helper()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, body)
	}
	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &e)
	return e.Error
}

func userToken(t *testing.T, ts *testServer, username, role string) string {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	u, err := store.CreateUser(context.Background(), ts.DB, username, string(hash), role)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := ts.Tokens.Generate(u.ID, u.Username, u.Role)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return token
}

// createAlbum creates a recording and an album through the API and returns
// the album with its inventory.
func createAlbum(t *testing.T, ts *testServer, token, catalog string, stock int) model.Album {
	t.Helper()

	resp := do(t, "POST", ts.URL+"/api/compositions", token, map[string]any{
		"title": "Song for " + catalog, "durationSeconds": 240,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create composition: %d", resp.StatusCode)
	}
	var c model.Composition
	decode(t, resp, &c)
	resp.Body.Close()

	resp = do(t, "POST", ts.URL+"/api/recordings", token, map[string]any{
		"compositionId": c.ID, "recordingDate": "2020-03-01", "studio": "Abbey Road",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create recording: %d", resp.StatusCode)
	}
	var rec model.Recording
	decode(t, resp, &rec)
	resp.Body.Close()

	resp = do(t, "POST", ts.URL+"/api/albums", token, map[string]any{
		"title":         "Album " + catalog,
		"catalogNumber": catalog,
		"releaseDate":   "2021-06-01",
		"tracks":        []map[string]any{{"position": 1, "recordingId": rec.ID}},
		"inventoryData": map[string]any{
			"wholesalePrice":  "5.00",
			"retailPrice":     "9.99",
			"initialQuantity": stock,
		},
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create album: %d %s", resp.StatusCode, body)
	}
	var album model.Album
	decode(t, resp, &album)
	resp.Body.Close()

	if album.Inventory == nil {
		t.Fatal("album created without inventory")
	}
	return album
}

func TestLoginEndpoint(t *testing.T) {
	ts, _ := setupTestServer(t)

	// Test invalid credentials.
	resp := post(t, ts.URL+"/api/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	expectStatus(t, resp, http.StatusUnauthorized)

	// Unknown user.
	resp = post(t, ts.URL+"/api/auth/login", map[string]string{"username": "ghost", "password": "password"})
	expectStatus(t, resp, http.StatusUnauthorized)

	// Missing password.
	resp = post(t, ts.URL+"/api/auth/login", map[string]string{"username": "admin"})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		resp := post(t, ts.URL+"/api/auth/login", map[string]string{"username": "x", "password": "y"})
		expectStatus(t, resp, http.StatusUnauthorized)
	}
	resp := post(t, ts.URL+"/api/auth/login", map[string]string{"username": "x", "password": "y"})
	expectStatus(t, resp, http.StatusTooManyRequests)
}

func TestLogoutRevokesToken(t *testing.T) {
	ts, token := setupTestServer(t)

	expectStatus(t, do(t, "GET", ts.URL+"/api/inventories", token, nil), http.StatusOK)
	expectStatus(t, do(t, "POST", ts.URL+"/api/auth/logout", token, nil), http.StatusOK)

	msg := expectStatus(t, do(t, "GET", ts.URL+"/api/inventories", token, nil), http.StatusUnauthorized)
	if msg != "token has been revoked" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestChangePassword(t *testing.T) {
	ts, token := setupTestServer(t)

	resp := do(t, "PUT", ts.URL+"/api/auth/password", token, map[string]string{
		"currentPassword": "wrong", "newPassword": "new-password",
	})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = do(t, "PUT", ts.URL+"/api/auth/password", token, map[string]string{
		"currentPassword": "password", "newPassword": "new-password",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = post(t, ts.URL+"/api/auth/login", map[string]string{"username": "admin", "password": "new-password"})
	expectStatus(t, resp, http.StatusOK)
}

func TestUnauthenticatedAccess(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/api/inventories")
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = do(t, "GET", ts.URL+"/api/albums", "not-a-token", nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	// Public endpoints.
	for _, path := range []string{"/api", "/api/health", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		expectStatus(t, resp, http.StatusOK)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, 0)

	req, _ := http.NewRequest("GET", ts.URL+"/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}

	resp, err = http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}
}

func TestRoleBasedAccess(t *testing.T) {
	ts, _ := setupTestServer(t)
	token := userToken(t, ts, "user1", model.RoleUser)

	// Regular user should not be able to create musicians (manager+ required).
	resp := do(t, "POST", ts.URL+"/api/musicians", token, map[string]any{"name": "Test"})
	expectStatus(t, resp, http.StatusForbidden)

	// Regular user should not access /api/users.
	expectStatus(t, do(t, "GET", ts.URL+"/api/users", token, nil), http.StatusForbidden)

	// Regular user may read the catalog.
	expectStatus(t, do(t, "GET", ts.URL+"/api/musicians", token, nil), http.StatusOK)
}

func TestRolloverRequiresAdmin(t *testing.T) {
	ts, _ := setupTestServer(t)

	for _, role := range []string{model.RoleUser, model.RoleManager} {
		token := userToken(t, ts, "staff-"+role, role)
		msg := expectStatus(t, do(t, "POST", ts.URL+"/api/sales/update-last-year", token, nil), http.StatusForbidden)
		if !strings.Contains(msg, "administrator") {
			t.Errorf("%s: unexpected message %q", role, msg)
		}
		expectStatus(t, do(t, "GET", ts.URL+"/api/sales/reset-events", token, nil), http.StatusForbidden)
	}
}

func TestSaleFlow(t *testing.T) {
	ts, token := setupTestServer(t)
	album := createAlbum(t, ts, token, "CAT-001", 100)
	invID := album.Inventory.ID

	// Sell 30.
	resp := do(t, "POST", ts.URL+"/api/sales", token, map[string]any{"inventoryId": invID, "quantity": 30})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var receipt model.SaleReceipt
	decode(t, resp, &receipt)
	resp.Body.Close()
	if receipt.Quantity != 30 || receipt.Remaining != 70 {
		t.Errorf("receipt = %+v", receipt)
	}
	if receipt.Message != "sale recorded, remaining stock: 70" {
		t.Errorf("message = %q", receipt.Message)
	}
	if receipt.SoldBy == nil {
		t.Error("expected seller on receipt")
	}

	// Oversell.
	resp = do(t, "POST", ts.URL+"/api/sales", token, map[string]any{"inventoryId": invID, "quantity": 71})
	if msg := expectStatus(t, resp, http.StatusBadRequest); msg != "insufficient stock, available: 70" {
		t.Errorf("unexpected message %q", msg)
	}

	// Unknown inventory.
	resp = do(t, "POST", ts.URL+"/api/sales", token, map[string]any{"inventoryId": 9999, "quantity": 1})
	expectStatus(t, resp, http.StatusNotFound)

	// Rollover.
	resp = do(t, "POST", ts.URL+"/api/sales/update-last-year", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rollover: expected 200, got %d", resp.StatusCode)
	}
	var rollover rolloverResponse
	decode(t, resp, &rollover)
	resp.Body.Close()
	if rollover.AffectedRows != 1 {
		t.Errorf("affectedRows = %d, want 1", rollover.AffectedRows)
	}

	// Sell 10 after the rollover.
	resp = do(t, "POST", ts.URL+"/api/sales", token, map[string]any{"inventoryId": invID, "quantity": 10})
	expectStatus(t, resp, http.StatusCreated)

	resp = do(t, "GET", ts.URL+"/api/inventories", token, nil)
	var inventories []model.Inventory
	decode(t, resp, &inventories)
	resp.Body.Close()
	if len(inventories) != 1 {
		t.Fatalf("expected 1 inventory, got %d", len(inventories))
	}
	inv := inventories[0]
	if inv.Unsold != 60 || inv.CurrentYearSales != 10 || inv.LastYearSales != 30 {
		t.Errorf("inventory = unsold %d, current %d, last %d; want 60, 10, 30",
			inv.Unsold, inv.CurrentYearSales, inv.LastYearSales)
	}
	if inv.AlbumTitle != "Album CAT-001" {
		t.Errorf("album title = %q", inv.AlbumTitle)
	}

	// Report.
	resp = do(t, "GET", ts.URL+"/api/sales/report", token, nil)
	var report model.SalesReport
	decode(t, resp, &report)
	resp.Body.Close()
	if report.TotalSales != 40 || len(report.Sales) != 2 {
		t.Errorf("report totalSales = %d over %d rows, want 40 over 2", report.TotalSales, len(report.Sales))
	}
	if !report.TotalRevenue.Equal(decimal.RequireFromString("399.60")) {
		t.Errorf("totalRevenue = %s, want 399.60", report.TotalRevenue)
	}

	resp = do(t, "GET", ts.URL+"/api/sales/report?minQuantity=20", token, nil)
	decode(t, resp, &report)
	resp.Body.Close()
	if report.TotalSales != 30 {
		t.Errorf("filtered totalSales = %d, want 30", report.TotalSales)
	}

	// Audit trail.
	resp = do(t, "GET", ts.URL+"/api/sales/reset-events", token, nil)
	var events []model.ResetEvent
	decode(t, resp, &events)
	resp.Body.Close()
	if len(events) != 1 || events[0].Description != model.ResetEventDescription {
		t.Errorf("reset events = %+v", events)
	}
}

func TestReportEndDateIncludesWholeDay(t *testing.T) {
	ts, token := setupTestServer(t)
	album := createAlbum(t, ts, token, "CAT-100", 10)

	soldAt := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)
	if _, err := store.RecordSale(context.Background(), ts.DB, album.Inventory.ID, 2, soldAt, nil); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	var report model.SalesReport
	resp := do(t, "GET", ts.URL+"/api/sales/report?startDate=2024-03-10&endDate=2024-03-10", token, nil)
	decode(t, resp, &report)
	resp.Body.Close()
	if report.TotalSales != 2 {
		t.Errorf("totalSales = %d, want 2", report.TotalSales)
	}

	resp = do(t, "GET", ts.URL+"/api/sales/report?endDate=2024-03-09", token, nil)
	decode(t, resp, &report)
	resp.Body.Close()
	if report.TotalSales != 0 {
		t.Errorf("totalSales = %d, want 0", report.TotalSales)
	}

	resp = do(t, "GET", ts.URL+"/api/sales/report?startDate=yesterday", token, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, "GET", ts.URL+"/api/sales/report?startDate=2024-03-11&endDate=2024-03-10", token, nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestSaleValidation(t *testing.T) {
	ts, token := setupTestServer(t)
	album := createAlbum(t, ts, token, "CAT-200", 5)

	tests := []struct {
		name string
		body any
	}{
		{"zero quantity", map[string]any{"inventoryId": album.Inventory.ID, "quantity": 0}},
		{"negative quantity", map[string]any{"inventoryId": album.Inventory.ID, "quantity": -1}},
		{"missing inventory", map[string]any{"quantity": 1}},
		{"unknown field", map[string]any{"inventoryId": album.Inventory.ID, "quantity": 1, "price": 3}},
		{"wrong type", map[string]any{"inventoryId": album.Inventory.ID, "quantity": "two"}},
		{"malformed", `{"inventoryId": `},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(t, "POST", ts.URL+"/api/sales", token, tt.body), http.StatusBadRequest)
		})
	}

	// Nothing was sold.
	inv, err := store.GetInventory(context.Background(), ts.DB, album.Inventory.ID)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Unsold != 5 || inv.CurrentYearSales != 0 {
		t.Errorf("inventory changed by rejected sales: %+v", inv)
	}
}

func TestInventoryAdjust(t *testing.T) {
	ts, token := setupTestServer(t)
	album := createAlbum(t, ts, token, "CAT-300", 5)
	url := ts.URL + "/api/albums/inventory/" + itoa(album.Inventory.ID)

	expectStatus(t, do(t, "PUT", url, token, map[string]any{"retailPrice": "-1"}), http.StatusBadRequest)
	expectStatus(t, do(t, "PUT", url, token, map[string]any{"retailPrice": "abc"}), http.StatusBadRequest)
	if msg := expectStatus(t, do(t, "PUT", url, token, map[string]any{"wholesalePrice": "1.23456"}), http.StatusBadRequest); msg != "wholesale price must have at most 2 decimal places" {
		t.Errorf("sub-cent price message = %q", msg)
	}
	expectStatus(t, do(t, "PUT", url, token, map[string]any{"unsold": -3}), http.StatusBadRequest)
	expectStatus(t, do(t, "PUT", url, token, map[string]any{}), http.StatusBadRequest)
	expectStatus(t, do(t, "PUT", ts.URL+"/api/albums/inventory/9999", token, map[string]any{"unsold": 1}), http.StatusNotFound)

	resp := do(t, "PUT", url, token, map[string]any{"retailPrice": "12.50", "unsold": 40})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var inv model.Inventory
	decode(t, resp, &inv)
	resp.Body.Close()
	if inv.Unsold != 40 || !inv.RetailPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("inventory = %+v", inv)
	}
	if !inv.WholesalePrice.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("wholesale price changed: %s", inv.WholesalePrice)
	}

	// Plain users cannot edit inventory.
	user := userToken(t, ts, "clerk", model.RoleUser)
	expectStatus(t, do(t, "PUT", url, user, map[string]any{"unsold": 1}), http.StatusForbidden)
}

func TestAlbumCatalog(t *testing.T) {
	ts, token := setupTestServer(t)
	album := createAlbum(t, ts, token, "CAT-400", 5)

	resp := do(t, "GET", ts.URL+"/api/albums/catalog-number/check?catalogNumber=CAT-400", token, nil)
	var check struct {
		Available bool `json:"available"`
	}
	decode(t, resp, &check)
	resp.Body.Close()
	if check.Available {
		t.Error("used catalog number reported available")
	}

	resp = do(t, "GET", ts.URL+"/api/albums/catalog-number/check?catalogNumber=CAT-400&excludeId="+itoa(album.ID), token, nil)
	decode(t, resp, &check)
	resp.Body.Close()
	if !check.Available {
		t.Error("own catalog number should be available when excluded")
	}

	// Duplicate catalog number.
	resp = do(t, "POST", ts.URL+"/api/albums", token, map[string]any{
		"title":         "Copy",
		"catalogNumber": "CAT-400",
		"releaseDate":   "2022-01-01",
		"inventoryData": map[string]any{"wholesalePrice": 1, "retailPrice": 2, "initialQuantity": 1},
	})
	expectStatus(t, resp, http.StatusConflict)

	// Missing recording.
	resp = do(t, "POST", ts.URL+"/api/albums", token, map[string]any{
		"title":         "Ghost",
		"catalogNumber": "CAT-401",
		"releaseDate":   "2022-01-01",
		"tracks":        []map[string]any{{"position": 1, "recordingId": 9999}},
		"inventoryData": map[string]any{"wholesalePrice": 1, "retailPrice": 2, "initialQuantity": 1},
	})
	expectStatus(t, resp, http.StatusNotFound)

	// Negative stock.
	resp = do(t, "POST", ts.URL+"/api/albums", token, map[string]any{
		"title":         "Negative",
		"catalogNumber": "CAT-402",
		"releaseDate":   "2022-01-01",
		"inventoryData": map[string]any{"wholesalePrice": 1, "retailPrice": 2, "initialQuantity": -1},
	})
	expectStatus(t, resp, http.StatusBadRequest)

	// Get with tracks.
	resp = do(t, "GET", ts.URL+"/api/albums/"+itoa(album.ID), token, nil)
	var got model.Album
	decode(t, resp, &got)
	resp.Body.Close()
	if len(got.Tracks) != 1 || got.Tracks[0].CompositionTitle != "Song for CAT-400" {
		t.Errorf("tracks = %+v", got.Tracks)
	}

	// Paginated list.
	resp = do(t, "GET", ts.URL+"/api/albums?page=1&pageSize=10", token, nil)
	var list albumListResponse
	decode(t, resp, &list)
	resp.Body.Close()
	if list.Pagination.TotalItems != 1 || len(list.Albums) != 1 {
		t.Errorf("list = %+v", list)
	}

	// Search needs two characters.
	expectStatus(t, do(t, "GET", ts.URL+"/api/albums/search?q=C", token, nil), http.StatusBadRequest)
	resp = do(t, "GET", ts.URL+"/api/albums/search?q=cat-4", token, nil)
	var found []model.Album
	decode(t, resp, &found)
	resp.Body.Close()
	if len(found) != 1 {
		t.Errorf("search found %d albums, want 1", len(found))
	}

	// Top selling.
	expectStatus(t, do(t, "GET", ts.URL+"/api/top-selling", token, nil), http.StatusOK)
}

func TestAlbumCover(t *testing.T) {
	ts, token := setupTestServer(t)
	album := createAlbum(t, ts, token, "CAT-500", 1)
	url := ts.URL + "/api/albums/" + itoa(album.ID) + "/cover"

	expectStatus(t, do(t, "GET", url, token, nil), http.StatusNotFound)

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 80, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest("PUT", url, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "image/png")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, "GET", url, token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}

	// Not an image.
	expectStatus(t, do(t, "PUT", url, token, "plain text"), http.StatusBadRequest)
}

func TestCatalogEndpoints(t *testing.T) {
	ts, token := setupTestServer(t)

	resp := do(t, "POST", ts.URL+"/api/musicians", token, map[string]any{
		"name": "Ella Stone", "roles": []string{model.MusicianVocalist},
	})
	var ella model.Musician
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create musician: %d", resp.StatusCode)
	}
	decode(t, resp, &ella)
	resp.Body.Close()

	// Duplicate name and bad role.
	expectStatus(t, do(t, "POST", ts.URL+"/api/musicians", token, map[string]any{"name": "Ella Stone"}), http.StatusConflict)
	expectStatus(t, do(t, "POST", ts.URL+"/api/musicians", token, map[string]any{
		"name": "Bad Role", "roles": []string{"DANCER"},
	}), http.StatusBadRequest)

	resp = do(t, "PUT", ts.URL+"/api/musicians/"+itoa(ella.ID), token, map[string]any{"country": "UK"})
	var updated model.Musician
	decode(t, resp, &updated)
	resp.Body.Close()
	if updated.Country != "UK" || updated.Name != "Ella Stone" {
		t.Errorf("updated musician = %+v", updated)
	}

	// Ensemble with a missing member.
	expectStatus(t, do(t, "POST", ts.URL+"/api/ensembles", token, map[string]any{
		"name": "Ghosts", "formationDate": "2010-01-01", "type": model.EnsembleBand,
		"members": []map[string]any{{"musicianId": 9999}},
	}), http.StatusNotFound)

	// Ensemble without members.
	expectStatus(t, do(t, "POST", ts.URL+"/api/ensembles", token, map[string]any{
		"name": "Nobody", "formationDate": "2010-01-01", "type": model.EnsembleBand, "members": []any{},
	}), http.StatusBadRequest)

	resp = do(t, "POST", ts.URL+"/api/ensembles", token, map[string]any{
		"name": "The Stones", "formationDate": "2010-01-01", "type": model.EnsembleBand,
		"members": []map[string]any{{"musicianId": ella.ID, "role": "lead vocals"}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create ensemble: %d", resp.StatusCode)
	}
	var band model.Ensemble
	decode(t, resp, &band)
	resp.Body.Close()
	if len(band.Members) != 1 {
		t.Errorf("members = %+v", band.Members)
	}

	resp = do(t, "GET", ts.URL+"/api/ensembles/"+itoa(band.ID)+"/compositions-count", token, nil)
	var count struct {
		CompositionsCount int `json:"compositionsCount"`
	}
	decode(t, resp, &count)
	resp.Body.Close()
	if count.CompositionsCount != 0 {
		t.Errorf("compositions count = %d", count.CompositionsCount)
	}
	expectStatus(t, do(t, "GET", ts.URL+"/api/ensembles/9999/albums", token, nil), http.StatusNotFound)
	expectStatus(t, do(t, "GET", ts.URL+"/api/ensembles/abc", token, nil), http.StatusBadRequest)

	// Recording of a missing composition.
	expectStatus(t, do(t, "POST", ts.URL+"/api/recordings", token, map[string]any{
		"compositionId": 9999, "recordingDate": "2020-01-01",
	}), http.StatusNotFound)

	// A referenced composition cannot be deleted.
	album := createAlbum(t, ts, token, "CAT-600", 1)
	compID := album.Tracks[0].CompositionID
	if compID == 0 {
		t.Fatal("track without composition")
	}
	expectStatus(t, do(t, "DELETE", ts.URL+"/api/compositions/"+itoa(compID), token, nil), http.StatusConflict)
}

func TestUsersAdmin(t *testing.T) {
	ts, token := setupTestServer(t)

	resp := do(t, "POST", ts.URL+"/api/users", token, map[string]string{
		"username": "clerk", "password": "long-enough", "role": model.RoleUser,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user: %d", resp.StatusCode)
	}
	var clerk model.User
	decode(t, resp, &clerk)
	resp.Body.Close()

	expectStatus(t, do(t, "POST", ts.URL+"/api/users", token, map[string]string{
		"username": "clerk", "password": "long-enough", "role": model.RoleUser,
	}), http.StatusConflict)
	expectStatus(t, do(t, "POST", ts.URL+"/api/users", token, map[string]string{
		"username": "short", "password": "short", "role": model.RoleUser,
	}), http.StatusBadRequest)
	expectStatus(t, do(t, "POST", ts.URL+"/api/users", token, map[string]string{
		"username": "boss", "password": "long-enough", "role": "owner",
	}), http.StatusBadRequest)

	resp = do(t, "PUT", ts.URL+"/api/users/"+itoa(clerk.ID), token, map[string]string{"role": model.RoleManager})
	var promoted model.User
	decode(t, resp, &promoted)
	resp.Body.Close()
	if promoted.Role != model.RoleManager {
		t.Errorf("role = %q", promoted.Role)
	}

	claims, err := ts.Tokens.Validate(token)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, do(t, "DELETE", ts.URL+"/api/users/"+itoa(claims.UserID), token, nil), http.StatusBadRequest)
	expectStatus(t, do(t, "DELETE", ts.URL+"/api/users/"+itoa(clerk.ID), token, nil), http.StatusOK)
	expectStatus(t, do(t, "GET", ts.URL+"/api/users/9999", token, nil), http.StatusNotFound)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
