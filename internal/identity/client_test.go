package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignIn(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"idToken":      "id-1",
			"localId":      "user-1",
			"refreshToken": "refresh-1",
			"expiresIn":    "3600",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "api-key-1", nil)
	creds, err := c.SignIn(context.Background(), "a@b.c", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if gotPath != "/v1/accounts/signin" || gotKey != "api-key-1" {
		t.Fatalf("unexpected request: %s key=%q", gotPath, gotKey)
	}
	if gotBody["email"] != "a@b.c" || gotBody["returnSecureToken"] != true {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if creds.Token != "id-1" || creds.UserID != "user-1" || creds.RefreshToken != "refresh-1" {
		t.Fatalf("credentials not mapped: %+v", creds)
	}
	if creds.ExpiresIn != time.Hour {
		t.Fatalf("expiresIn seconds not parsed: %v", creds.ExpiresIn)
	}
}

func TestSignUpRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "EMAIL_EXISTS"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.SignUp(context.Background(), "a@b.c", "secret123")

	var authErr *AuthFailedError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthFailedError, got %v", err)
	}
	if authErr.Reason != "EMAIL_EXISTS" || authErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected failure detail: %+v", authErr)
	}
}

func TestRefresh(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"id_token":      "id-2",
			"user_id":       "user-1",
			"refresh_token": "refresh-2",
			"expires_in":    "1800",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	creds, err := c.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if gotBody["grant_type"] != "refresh_token" || gotBody["refresh_token"] != "refresh-1" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if creds.Token != "id-2" || creds.RefreshToken != "refresh-2" {
		t.Fatalf("rotated credential not mapped: %+v", creds)
	}
	if creds.ExpiresIn != 30*time.Minute {
		t.Fatalf("snake_case expires_in not parsed: %v", creds.ExpiresIn)
	}
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.SignIn(context.Background(), "a@b.c", "secret123")
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	var authErr *AuthFailedError
	if errors.As(err, &authErr) {
		t.Fatalf("transport failure must not masquerade as a refusal")
	}
}
