package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// AuthorizationHeader is the header key to get the authorization token
	AuthorizationHeader = "authorization"
	tokenPrefix         = "Bearer "
)

// Credentials of a client of the TokenServer and the identity it is given
type Credentials struct {
	Secret    string `json:"secret" yaml:"secret"`
	Subject   string `json:"subject" yaml:"subject"`
	Org       string `json:"org,omitempty" yaml:"org,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TokenServer mints unsigned access tokens with the client credentials flow.
// For emulation purposes only.
type TokenServer struct {
	Clients map[string]Credentials
	TTL     time.Duration
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ServeHTTP implements http.Handler
func (s *TokenServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "%v", err)
		return
	}
	if gt := req.PostForm.Get("grant_type"); gt != "client_credentials" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}
	clientID, secret, ok := req.BasicAuth()
	if !ok {
		clientID, secret = req.PostForm.Get("client_id"), req.PostForm.Get("client_secret")
	}
	creds, ok := s.Clients[clientID]
	if !ok || creds.Secret != secret {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client")
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := UnsignedToken(Claims{
		Subject:   creds.Subject,
		Org:       creds.Org,
		Namespace: creds.Namespace,
		Expiry:    time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "%v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{AccessToken: token, TokenType: "bearer", ExpiresIn: int64(ttl / time.Second)})
}

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// BearerAuthenticate rejects the requests without a valid and unexpired bearer token
func BearerAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := authenticate(r.Header.Get(AuthorizationHeader)); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authenticate(token string) error {
	if token == "" {
		return fmt.Errorf("token not found")
	}
	if !strings.HasPrefix(token, tokenPrefix) && !strings.HasPrefix(token, strings.ToLower(tokenPrefix)) {
		return fmt.Errorf(`missing "` + tokenPrefix + `" prefix`)
	}
	claims, err := ParseClaims(token[len(tokenPrefix):])
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if claims.Expiry != 0 && time.Unix(claims.Expiry, 0).Before(time.Now()) {
		return fmt.Errorf("token expired")
	}
	return nil
}
