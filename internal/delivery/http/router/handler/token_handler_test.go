package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/errors"
	"arcana/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClientUsecase lets each test script the usecase outcome.
type stubClientUsecase struct {
	issue   func(*usecase.IssueTokenInput) (*usecase.TokenResponse, error)
	refresh func(*usecase.RefreshClientTokenInput) (*usecase.TokenResponse, error)
}

func (s *stubClientUsecase) IssueToken(_ context.Context, input *usecase.IssueTokenInput) (*usecase.TokenResponse, error) {
	return s.issue(input)
}

func (s *stubClientUsecase) RefreshToken(_ context.Context, input *usecase.RefreshClientTokenInput) (*usecase.TokenResponse, error) {
	return s.refresh(input)
}

func (s *stubClientUsecase) CreateClient(context.Context, *usecase.CreateClientInput) (*usecase.ClientCredentials, error) {
	panic("not used")
}

func (s *stubClientUsecase) RotateSecret(context.Context, string) (*usecase.ClientCredentials, error) {
	panic("not used")
}

func (s *stubClientUsecase) DeactivateClient(context.Context, string) error { panic("not used") }

func (s *stubClientUsecase) DeleteClient(context.Context, string) error { panic("not used") }

func (s *stubClientUsecase) ListClients(context.Context) ([]*entity.Client, error) {
	panic("not used")
}

func postToken(t *testing.T, uc usecase.ClientUsecase, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewTokenHandler(uc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, handler.Token(c))

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestTokenHandler_ClientCredentials(t *testing.T) {
	uc := &stubClientUsecase{
		issue: func(input *usecase.IssueTokenInput) (*usecase.TokenResponse, error) {
			assert.Equal(t, "client_abc", input.ClientID)
			assert.Equal(t, "s3cret", input.ClientSecret)
			assert.Equal(t, []string{"read", "write"}, input.Scopes)

			return &usecase.TokenResponse{
				AccessToken: "jwt-token",
				TokenType:   "Bearer",
				ExpiresIn:   3600,
				Scope:       "read write",
			}, nil
		},
	}

	rec := postToken(t, uc, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"client_abc"},
		"client_secret": {"s3cret"},
		"scope":         {"read write"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "jwt-token", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])
	// No refresh token, no refresh_token field.
	_, present := body["refresh_token"]
	assert.False(t, present)
}

func TestTokenHandler_InvalidClient(t *testing.T) {
	uc := &stubClientUsecase{
		issue: func(*usecase.IssueTokenInput) (*usecase.TokenResponse, error) {
			return nil, errors.Wrap(domainerrors.ErrInvalidClient, "client authentication failed")
		},
	}

	rec := postToken(t, uc, url.Values{
		"grant_type": {"client_credentials"},
		"client_id":  {"client_abc"},
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_client", body["error"])
}

func TestTokenHandler_InvalidScope(t *testing.T) {
	uc := &stubClientUsecase{
		issue: func(*usecase.IssueTokenInput) (*usecase.TokenResponse, error) {
			return nil, errors.Wrap(domainerrors.ErrInvalidScope, "unrecognized scope(s): payments")
		},
	}

	rec := postToken(t, uc, url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"payments"},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_scope", body["error"])
	assert.Contains(t, body["error_description"], "payments")
}

func TestTokenHandler_RefreshGrant(t *testing.T) {
	uc := &stubClientUsecase{
		refresh: func(input *usecase.RefreshClientTokenInput) (*usecase.TokenResponse, error) {
			assert.Equal(t, "refresh-jwt", input.RefreshToken)

			return &usecase.TokenResponse{
				AccessToken:  "fresh-jwt",
				TokenType:    "Bearer",
				ExpiresIn:    3600,
				Scope:        "read",
				RefreshToken: "refresh-jwt-2",
			}, nil
		},
	}

	rec := postToken(t, uc, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {"refresh-jwt"},
		"client_id":     {"client_abc"},
		"client_secret": {"s3cret"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "fresh-jwt", body["access_token"])
	assert.Equal(t, "refresh-jwt-2", body["refresh_token"])
}

func TestTokenHandler_BadRequests(t *testing.T) {
	uc := &stubClientUsecase{}

	t.Run("missing grant type", func(t *testing.T) {
		rec := postToken(t, uc, url.Values{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		rec := postToken(t, uc, url.Values{"grant_type": {"password"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "unsupported_grant_type", decodeBody(t, rec)["error"])
	})

	t.Run("refresh without token", func(t *testing.T) {
		rec := postToken(t, uc, url.Values{"grant_type": {"refresh_token"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
	})
}
