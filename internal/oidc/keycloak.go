package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contractdesk/contractdesk/backend/go-services/pkg/middleware"
	"golang.org/x/oauth2"
)

// Keycloak performs the token grants used by sign-in and returns the verified
// ID token claims.
type Keycloak struct {
	conf     oauth2.Config
	verifier middleware.Verifier
}

// NewKeycloak builds a client for the realm issuer (…/realms/<realm>).
func NewKeycloak(issuer, clientID, clientSecret string, verifier middleware.Verifier) *Keycloak {
	base := strings.TrimRight(issuer, "/") + "/protocol/openid-connect"
	return &Keycloak{
		conf: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/auth",
				TokenURL:  base + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		verifier: verifier,
	}
}

// PasswordLogin uses the resource owner password grant (development realms only).
func (k *Keycloak) PasswordLogin(ctx context.Context, username, password string) (map[string]interface{}, error) {
	tok, err := k.conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	return k.claims(ctx, tok)
}

// CodeLogin exchanges an authorization code obtained by the browser redirect.
func (k *Keycloak) CodeLogin(ctx context.Context, code, redirectURI string) (map[string]interface{}, error) {
	conf := k.conf
	conf.RedirectURL = redirectURI
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	return k.claims(ctx, tok)
}

func (k *Keycloak) claims(ctx context.Context, tok *oauth2.Token) (map[string]interface{}, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, errors.New("token response has no id_token")
	}
	idt, err := k.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	var claims map[string]interface{}
	if err := idt.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}
