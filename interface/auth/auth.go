package auth

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Claims of the access token used to establish the session
type Claims struct {
	Subject   string `json:"sub"`
	Org       string `json:"org,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Expiry    int64  `json:"exp,omitempty"`
}

// NewTokenSource returns a token source fetching (and refreshing) an access token with the client credentials flow
func NewTokenSource(ctx context.Context, authURL, clientID, clientSecret string) oauth2.TokenSource {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     authURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cfg.TokenSource(ctx)
}

// NewClient returns an http client authenticating its requests with the token source.
// If ts is nil, the requests are not authenticated.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	if ts == nil {
		return http.DefaultClient
	}
	return oauth2.NewClient(ctx, ts)
}

// ParseClaims decodes the claims of a JWT without checking its signature
func ParseClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("ParseClaims: malformed token (%d parts)", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, fmt.Errorf("ParseClaims.Decode: %w", err)
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, fmt.Errorf("ParseClaims.Unmarshal: %w", err)
	}
	return claims, nil
}

// UnsignedToken encodes the claims in a JWT without signature (alg "none"), for test and emulation purposes
func UnsignedToken(claims Claims) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("UnsignedToken: %w", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".", nil
}

// UserNamespace returns the default namespace of a user: the hex sha1 of its subject
func UserNamespace(subject string) string {
	h := sha1.Sum([]byte(subject))
	return hex.EncodeToString(h[:])
}

// SessionFromToken establishes the session from the claims of the access token
func SessionFromToken(token string) (common.Session, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return common.Session{}, fmt.Errorf("SessionFromToken: %w", err)
	}
	session := common.Session{Org: claims.Org, Namespace: claims.Namespace}
	if session.Namespace == "" {
		if claims.Subject == "" {
			return common.Session{}, fmt.Errorf("SessionFromToken: token has neither namespace nor subject")
		}
		session.Namespace = UserNamespace(claims.Subject)
	}
	return session, nil
}

// Discover fetches an access token and returns the session of its owner
func Discover(ctx context.Context, ts oauth2.TokenSource) (common.Session, error) {
	token, err := ts.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode >= 500 {
			err = service.MakeTemporary(err)
		}
		return common.Session{}, fmt.Errorf("Discover.Token: %w", err)
	}
	session, err := SessionFromToken(token.AccessToken)
	if err != nil {
		return common.Session{}, fmt.Errorf("Discover: %w", err)
	}
	log.Logger(ctx).Debug("session established", zap.String("org", session.Org), zap.String("namespace", session.Namespace))
	return session, nil
}
