package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const defaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// passwordTokenSource signs in with email and password each time a fresh token is needed.
// Wrapped in oauth2.ReuseTokenSource it only runs on first use and after expiry.
type passwordTokenSource struct {
	ctx         context.Context
	httpClient  *http.Client
	identityURL string
	apiKey      string
	email       string
	password    string
	now         func() time.Time
	logger      *slog.Logger
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	path := "accounts:signInWithPassword"
	body, err := json.Marshal(signInRequest{Email: s.email, Password: s.password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in request: %w", err)
	}
	endpoint := s.identityURL + "/" + path + "?key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Method: http.MethodPost, Path: path, Kind: apperrors.ErrTransportFailed, Err: err, Attempts: 1}
	}
	defer resp.Body.Close()

	if rerr := responseError(resp, http.MethodPost, path, 1); rerr != nil {
		// Every rejected sign-in is a credential problem from the caller's point of view.
		if rerr.Kind != apperrors.ErrRateLimited {
			rerr.Kind = apperrors.ErrAuthFailed
		}
		s.logger.Error("Sign-in rejected", slog.Int("status", rerr.Status), slog.String("message", rerr.Message))
		return nil, rerr
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Method: http.MethodPost, Path: path, Status: resp.StatusCode, Kind: apperrors.ErrAuthFailed, Err: fmt.Errorf("failed to decode sign-in response: %w", err)}
	}
	if out.IDToken == "" {
		return nil, &Error{Method: http.MethodPost, Path: path, Status: resp.StatusCode, Kind: apperrors.ErrAuthFailed, Message: "sign-in response carried no identity token"}
	}

	token := &oauth2.Token{
		AccessToken:  out.IDToken,
		TokenType:    "Bearer",
		RefreshToken: out.RefreshToken,
		Expiry:       tokenExpiry(out.IDToken, out.ExpiresIn, s.now()),
	}
	s.logger.Info("Signed in to remote", slog.String("user", out.LocalID), slog.Time("expires", token.Expiry))
	return token, nil
}

// tokenExpiry prefers the identity token's exp claim, then the expiresIn seconds, then one hour.
// The token is only read, never verified; the remote verifies it on every request.
func tokenExpiry(idToken, expiresIn string, now time.Time) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		return now.Add(time.Duration(secs) * time.Second)
	}
	return now.Add(time.Hour)
}
