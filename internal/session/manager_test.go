package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeService is a minimal in-process stand-in for the remote API.
type fakeService struct {
	mux      *http.ServeMux
	requests int
}

func newFakeService(t *testing.T) (*fakeService, *Manager, TokenStore) {
	t.Helper()
	f := &fakeService{mux: http.NewServeMux()}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests++
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	store := &MemoryStore{}
	mgr := NewManager(store, discardLogger())
	mgr.Bind(paisa.NewClient(srv.URL, 5*time.Second))
	return f, mgr, store
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "1", "exp": expiresAt.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestRefreshUserWithoutToken(t *testing.T) {
	f, mgr, _ := newFakeService(t)
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}

	if mgr.State() != StateUnknown {
		t.Errorf("state before first refresh = %v, want Unknown", mgr.State())
	}

	user, err := mgr.RefreshUser(context.Background())
	if err != nil {
		t.Fatalf("RefreshUser() error = %v, want nil (expected condition)", err)
	}
	if user != nil {
		t.Errorf("RefreshUser() = %+v, want nil", user)
	}
	if mgr.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after anonymous refresh")
	}
	if mgr.IsAdmin() {
		t.Error("IsAdmin() = true for anonymous session")
	}
	if mgr.State() != StateAnonymous {
		t.Errorf("state = %v, want Anonymous", mgr.State())
	}
	if f.requests != 0 {
		t.Errorf("tokenless refresh made %d network calls, want 0", f.requests)
	}
}

func TestLoginPersistsTokenAndLoadsProfile(t *testing.T) {
	f, mgr, store := newFakeService(t)
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}

	f.mux.HandleFunc("POST /users/signin", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok","token":"tok-abc"}`))
	})
	f.mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"unauthorized"}`))
			return
		}
		w.Write([]byte(`{"user":{"id":1,"email":"trader@example.com","balance":500000,"isAdmin":false}}`))
	})

	user, err := mgr.Login(context.Background(), "trader@example.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "trader@example.com" || user.Balance != 500000 {
		t.Errorf("unexpected profile: %+v", user)
	}

	stored, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if stored != "tok-abc" {
		t.Errorf("stored token = %q, want tok-abc", stored)
	}
	if !mgr.IsAuthenticated() || mgr.State() != StateAuthenticated {
		t.Error("session not authenticated after login")
	}
}

func TestLoginPropagatesInvalidCredentials(t *testing.T) {
	f, mgr, store := newFakeService(t)
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}

	f.mux.HandleFunc("POST /users/signin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	})

	_, err := mgr.Login(context.Background(), "trader@example.com", "wrong")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() = %v, want *domain.AuthError", err)
	}
	if authErr.Kind != domain.AuthInvalidCredentials {
		t.Errorf("kind = %s, want %s", authErr.Kind, domain.AuthInvalidCredentials)
	}

	if token, _ := store.Load(); token != "" {
		t.Errorf("failed login left token %q in store", token)
	}
}

func TestPassiveRefreshSwallowsRejection(t *testing.T) {
	f, mgr, store := newFakeService(t)
	store.Save(signedToken(t, time.Now().Add(time.Hour)))
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}

	f.mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token revoked"}`))
	})

	user, err := mgr.RefreshUser(context.Background())
	if err != nil {
		t.Fatalf("passive refresh should not error, got %v", err)
	}
	if user != nil {
		t.Errorf("RefreshUser() = %+v, want nil", user)
	}
	if token, _ := store.Load(); token != "" {
		t.Errorf("rejected token %q not cleared from store", token)
	}
	if mgr.Token() != "" {
		t.Error("rejected token still held in memory")
	}
}

func TestExpiredTokenClearedWithoutNetworkCall(t *testing.T) {
	f, mgr, store := newFakeService(t)
	store.Save(signedToken(t, time.Now().Add(-time.Hour)))
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}

	user, err := mgr.RefreshUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Errorf("RefreshUser() = %+v, want nil for expired token", user)
	}
	if f.requests != 0 {
		t.Errorf("expired-token refresh made %d network calls, want 0", f.requests)
	}
	if token, _ := store.Load(); token != "" {
		t.Errorf("expired token %q not cleared", token)
	}
}

func TestLogoutAlwaysSucceedsLocally(t *testing.T) {
	f, mgr, store := newFakeService(t)
	store.Save("tok-abc")
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}

	// No endpoints registered: any network call would 404. Logout must not
	// touch the network at all.
	mgr.Logout()

	if f.requests != 0 {
		t.Errorf("logout made %d network calls, want 0", f.requests)
	}
	if mgr.IsAuthenticated() || mgr.Token() != "" {
		t.Error("logout did not clear the session")
	}
	if token, _ := store.Load(); token != "" {
		t.Errorf("logout left token %q in store", token)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path)

	// Missing file is an empty session, not an error.
	token, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		t.Errorf("Load() on missing file = %q, want empty", token)
	}

	if err := store.Save("tok-xyz"); err != nil {
		t.Fatal(err)
	}
	token, err = store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if token != "tok-xyz" {
		t.Errorf("Load() = %q, want tok-xyz", token)
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on missing file = %v, want nil", err)
	}
	token, _ = store.Load()
	if token != "" {
		t.Errorf("Load() after Clear() = %q, want empty", token)
	}
}
