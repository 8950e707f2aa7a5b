// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory stores, so no database is required.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/session"
	"storefront/internal/store/storetest"
)

// memSessions is an in-memory SessionStore.
type memSessions struct {
	mu    sync.Mutex
	next  int
	items map[string]session.Data
}

func newMemSessions() *memSessions {
	return &memSessions{items: make(map[string]session.Data)}
}

func (m *memSessions) Create(_ context.Context, data *session.Data) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	token := fmt.Sprintf("token-%d", m.next)
	m.items[token] = *data
	return token, nil
}

func (m *memSessions) Get(_ context.Context, token string) (*session.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[token]
	if !ok {
		return nil, nil
	}
	return &data, nil
}

func (m *memSessions) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, token)
	return nil
}

// fakeImages is an in-memory ImageStorage.
type fakeImages struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{uploads: make(map[string][]byte)}
}

func (f *fakeImages) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeImages) DeleteURL(_ context.Context, rawURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, rawURL)
	return nil
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	DB       *storetest.DB
	Sessions *memSessions
	Images   *fakeImages
	Auth     *Auth
	Catalog  *Catalog
	Orders   *Orders
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := storetest.New()
	sessions := newMemSessions()
	images := newFakeImages()

	catalogSvc := catalog.NewService(db.Categories(), db.Products(), db.Reviews(), nil)
	orderSvc := orders.NewService(db.Orders(), db.Products(), db.Users())

	return &testEnv{
		DB:       db,
		Sessions: sessions,
		Images:   images,
		Auth:     NewAuth(sessions, db.Users()),
		Catalog:  NewCatalog(catalogSvc, images),
		Orders:   NewOrders(orderSvc),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return middleware.WithSession(ctx, data)
}

// testSession creates a session.Data for a stored user.
func testSession(u models.User) *session.Data {
	return &session.Data{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   string(u.Role),
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// jsonRequest builds a request with body encoded as JSON. A string body is
// sent verbatim.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// serve runs h for req, optionally as sess, and returns the recorder.
func serve(h http.HandlerFunc, req *http.Request, sess *session.Data) *httptest.ResponseRecorder {
	if sess != nil {
		req = req.WithContext(ctxWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// apiResponse mirrors envelope for decoding in tests.
type apiResponse struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

// decodeResponse checks the status code and decodes the envelope. When
// data is non-nil the envelope's data is decoded into it.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, data any) apiResponse {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, wantStatus, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(resp.Data, data); err != nil {
			t.Fatalf("decode data: %v (data: %s)", err, resp.Data)
		}
	}
	return resp
}

// assertFieldError fails unless resp carries a validation message for field.
func assertFieldError(t *testing.T, resp apiResponse, field string) {
	t.Helper()
	if len(resp.Errors[field]) == 0 {
		t.Errorf("expected a validation error for %q, got %v", field, resp.Errors)
	}
}

// mustUUID parses s or fails the test.
func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}
