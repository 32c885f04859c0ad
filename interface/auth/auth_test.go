package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionFromToken(t *testing.T) {
	token, err := UnsignedToken(Claims{Subject: "user@example.com", Org: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	s, err := SessionFromToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if s.Org != "acme" || s.Namespace != UserNamespace("user@example.com") || len(s.Namespace) != 40 {
		t.Errorf("unexpected session %+v", s)
	}

	token, _ = UnsignedToken(Claims{Subject: "user@example.com", Namespace: "demo"})
	if s, _ = SessionFromToken(token); s.Namespace != "demo" || s.Scope() != "demo" {
		t.Errorf("expected namespace claim, got %+v", s)
	}

	token, _ = UnsignedToken(Claims{})
	if _, err := SessionFromToken(token); err == nil {
		t.Error("expected an error without subject")
	}
	if _, err := SessionFromToken("not-a-jwt"); err == nil {
		t.Error("expected an error on malformed token")
	}
}

func TestUserNamespace(t *testing.T) {
	// sha1("abc")
	if ns := UserNamespace("abc"); ns != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("unexpected namespace %s", ns)
	}
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()
	tokens := &TokenServer{Clients: map[string]Credentials{
		"provisioner": {Secret: "s3cr3t", Subject: "user@example.com", Org: "acme"},
	}}
	mux := http.NewServeMux()
	mux.Handle("/auth/token", tokens)
	mux.Handle("/products/", BearerAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := NewTokenSource(ctx, srv.URL+"/auth/token", "provisioner", "s3cr3t")
	s, err := Discover(ctx, ts)
	if err != nil {
		t.Fatal(err)
	}
	if s.Org != "acme" || s.Scope() != "acme" {
		t.Errorf("unexpected session %+v", s)
	}

	resp, err := NewClient(ctx, ts).Get(srv.URL + "/products/demo")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected authenticated request, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/products/demo")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected unauthorized, got %d", resp.StatusCode)
	}

	if _, err := Discover(ctx, NewTokenSource(ctx, srv.URL+"/auth/token", "provisioner", "wrong")); err == nil {
		t.Error("expected an error with wrong credentials")
	}
}

func TestAuthenticateExpired(t *testing.T) {
	token, _ := UnsignedToken(Claims{Subject: "u", Expiry: time.Now().Add(-time.Minute).Unix()})
	if err := authenticate("Bearer " + token); err == nil {
		t.Error("expected an error on expired token")
	}
	if err := authenticate(token); err == nil {
		t.Error("expected an error without prefix")
	}
}
