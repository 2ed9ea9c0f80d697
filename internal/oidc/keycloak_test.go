package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	b, err := json.Marshal(claims)
	require.NoError(t, err)
	hdr := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	return hdr + "." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

func tokenServer(idToken string, seen *url.Values) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realms/contracts/protocol/openid-connect/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		*seen = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at", "token_type": "bearer", "id_token": idToken})
	}))
}

func TestKeycloakPasswordLogin(t *testing.T) {
	id := unsignedToken(t, map[string]interface{}{"sub": "kc-1", "email": "a@b.c", "exp": time.Now().Add(time.Minute).Unix()})
	var seen url.Values
	srv := tokenServer(id, &seen)
	defer srv.Close()

	kc := NewKeycloak(srv.URL+"/realms/contracts", "cid", "secret", NewInsecureVerifier())
	claims, err := kc.PasswordLogin(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "kc-1", claims["sub"])
	require.Equal(t, "password", seen.Get("grant_type"))
	require.Equal(t, "alice", seen.Get("username"))
	require.Equal(t, "cid", seen.Get("client_id"))
}

func TestKeycloakCodeLogin(t *testing.T) {
	id := unsignedToken(t, map[string]interface{}{"sub": "kc-2"})
	var seen url.Values
	srv := tokenServer(id, &seen)
	defer srv.Close()

	kc := NewKeycloak(srv.URL+"/realms/contracts/", "cid", "secret", NewInsecureVerifier())
	claims, err := kc.CodeLogin(context.Background(), "the-code", "http://localhost/cb")
	require.NoError(t, err)
	require.Equal(t, "kc-2", claims["sub"])
	require.Equal(t, "authorization_code", seen.Get("grant_type"))
	require.Equal(t, "http://localhost/cb", seen.Get("redirect_uri"))
}

func TestKeycloakRejectsExpiredIDToken(t *testing.T) {
	id := unsignedToken(t, map[string]interface{}{"sub": "kc-3", "exp": time.Now().Add(-time.Minute).Unix()})
	var seen url.Values
	srv := tokenServer(id, &seen)
	defer srv.Close()

	kc := NewKeycloak(srv.URL+"/realms/contracts", "cid", "secret", NewInsecureVerifier())
	_, err := kc.PasswordLogin(context.Background(), "a", "b")
	require.Error(t, err)
}

func TestInsecureVerifierMalformed(t *testing.T) {
	_, err := NewInsecureVerifier().Verify(context.Background(), "nodots")
	require.Error(t, err)
	_, err = NewInsecureVerifier().Verify(context.Background(), unsignedToken(t, map[string]interface{}{"email": "x"}))
	require.Error(t, err)
}

func TestInsecureVerifierClaims(t *testing.T) {
	v := NewInsecureVerifier()
	v.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	raw := unsignedToken(t, map[string]interface{}{"sub": "kc-9", "role": "admin", "exp": 1_700_000_060})

	tok, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "kc-9", claims["sub"])
	require.Equal(t, "admin", claims["role"])

	v.now = func() time.Time { return time.Unix(1_700_000_061, 0) }
	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}
