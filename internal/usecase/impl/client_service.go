package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "arcana/internal/delivery/context"
	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/domain/repository"
	"arcana/internal/domain/service"
	"arcana/internal/errors"
	"arcana/internal/usecase"

	"go.uber.org/fx"
)

type clientService struct {
	clientRepo repository.ClientRepository
	hasher     service.SecretHasher
	codec      service.TokenCodec
	generator  service.CredentialGenerator
	logger     *slog.Logger
}

// ClientServiceParams defines the dependencies of the client service.
type ClientServiceParams struct {
	fx.In

	ClientRepo repository.ClientRepository
	Hasher     service.SecretHasher
	Codec      service.TokenCodec
	Generator  service.CredentialGenerator
	Logger     *slog.Logger
}

// NewClientService creates the machine-to-machine token service.
func NewClientService(params ClientServiceParams) usecase.ClientUsecase {
	return &clientService{
		clientRepo: params.ClientRepo,
		hasher:     params.Hasher,
		codec:      params.Codec,
		generator:  params.Generator,
		logger:     params.Logger,
	}
}

func (s *clientService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// authenticate loads the client and checks the presented secret. Unknown id,
// inactive client and wrong secret all fail with the same error so the
// endpoint leaks nothing about which part was wrong.
func (s *clientService) authenticate(ctx context.Context, clientID, clientSecret string) (*entity.Client, error) {
	client, err := s.clientRepo.FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidClient, "client authentication failed")
		}

		return nil, errors.Wrap(err, "failed to load client")
	}

	if !client.IsActive || !s.hasher.Check(clientSecret, client.SecretHash) {
		return nil, errors.Wrap(domainerrors.ErrInvalidClient, "client authentication failed")
	}

	return client, nil
}

// resolveScopes narrows the client's grant to the requested subset. An empty
// request means the full grant. Each failure mode carries the offending
// scopes so callers can fix their request.
func resolveScopes(client *entity.Client, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return client.AllowedScopes, nil
	}

	var malformed []string
	for _, scope := range requested {
		if !entity.IsValidScopeFormat(scope) {
			malformed = append(malformed, scope)
		}
	}
	if len(malformed) > 0 {
		return nil, errors.Wrapf(domainerrors.ErrInvalidScope,
			"malformed scope(s): %s", strings.Join(malformed, ", "))
	}

	var unknown []string
	for _, scope := range requested {
		if !entity.IsSystemScope(scope) {
			unknown = append(unknown, scope)
		}
	}
	if len(unknown) > 0 {
		return nil, errors.Wrapf(domainerrors.ErrInvalidScope,
			"unrecognized scope(s): %s", strings.Join(unknown, ", "))
	}

	allowed := make(map[string]struct{}, len(client.AllowedScopes))
	for _, scope := range client.AllowedScopes {
		allowed[scope] = struct{}{}
	}

	var unauthorized []string
	for _, scope := range requested {
		if _, ok := allowed[scope]; !ok {
			unauthorized = append(unauthorized, scope)
		}
	}
	if len(unauthorized) > 0 {
		return nil, errors.Wrapf(domainerrors.ErrInvalidScope,
			"scope(s) not granted to this client: %s", strings.Join(unauthorized, ", "))
	}

	return requested, nil
}

func (s *clientService) mintTokens(ctx context.Context, client *entity.Client, scopes []string) (*usecase.TokenResponse, error) {
	accessToken, err := s.codec.SignClientToken(service.ClientClaims{
		ClientID:  client.ClientID,
		Scopes:    scopes,
		TokenType: service.TokenTypeAccess,
	}, time.Duration(client.TokenExpiresIn)*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	resp := &usecase.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   client.TokenExpiresIn,
		Scope:       entity.JoinScopes(scopes),
	}

	if client.SupportsRefreshToken {
		refreshToken, err := s.codec.SignClientToken(service.ClientClaims{
			ClientID:  client.ClientID,
			Scopes:    scopes,
			TokenType: service.TokenTypeRefresh,
		}, time.Duration(client.RefreshTokenExpiresIn)*time.Second)
		if err != nil {
			return nil, errors.Wrap(err, "failed to sign refresh token")
		}
		resp.RefreshToken = refreshToken
	}

	if err := s.clientRepo.TouchLastUsed(ctx, client.ClientID, time.Now()); err != nil {
		// Issuance already succeeded; losing the timestamp is not worth a 500.
		s.log(ctx).Warn("failed to record client last-used time",
			slog.String("client_id", client.ClientID), slog.Any("error", err))
	}

	return resp, nil
}

func (s *clientService) IssueToken(ctx context.Context, input *usecase.IssueTokenInput) (*usecase.TokenResponse, error) {
	client, err := s.authenticate(ctx, input.ClientID, input.ClientSecret)
	if err != nil {
		return nil, err
	}

	scopes, err := resolveScopes(client, input.Scopes)
	if err != nil {
		return nil, err
	}

	resp, err := s.mintTokens(ctx, client, scopes)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("issued client token",
		slog.String("client_id", client.ClientID),
		slog.String("scope", resp.Scope))

	return resp, nil
}

func (s *clientService) RefreshToken(ctx context.Context, input *usecase.RefreshClientTokenInput) (*usecase.TokenResponse, error) {
	claims, err := s.codec.VerifyClientToken(input.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidGrant, "refresh token is invalid or expired")
	}
	if claims.TokenType != service.TokenTypeRefresh {
		return nil, errors.Wrap(domainerrors.ErrInvalidGrant, "presented token is not a refresh token")
	}

	client, err := s.authenticate(ctx, input.ClientID, input.ClientSecret)
	if err != nil {
		return nil, err
	}

	if claims.ClientID != client.ClientID {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "refresh token does not belong to this client")
	}
	if !client.SupportsRefreshToken {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "client no longer supports refresh tokens")
	}

	// Scopes ride along from the original grant; re-check them against the
	// client's current grant in case it was narrowed since.
	scopes, err := resolveScopes(client, claims.Scopes)
	if err != nil {
		return nil, err
	}

	resp, err := s.mintTokens(ctx, client, scopes)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("refreshed client token", slog.String("client_id", client.ClientID))

	return resp, nil
}

func (s *clientService) CreateClient(ctx context.Context, input *usecase.CreateClientInput) (*usecase.ClientCredentials, error) {
	clientID, err := s.generator.ClientID()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate client id")
	}

	secret, err := s.generator.ClientSecret()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate client secret")
	}

	secretHash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash client secret")
	}

	client := entity.NewClient(clientID, input.Name, input.Description)
	client.SecretHash = secretHash
	if len(input.AllowedScopes) > 0 {
		for _, scope := range input.AllowedScopes {
			if !entity.IsSystemScope(scope) {
				return nil, errors.Wrapf(domainerrors.ErrValidation, "unrecognized scope: %s", scope)
			}
		}
		client.AllowedScopes = input.AllowedScopes
	}
	client.SupportsRefreshToken = input.SupportsRefreshToken
	if input.TokenExpiresIn > 0 {
		client.TokenExpiresIn = input.TokenExpiresIn
	}
	if input.RefreshTokenExpiresIn > 0 {
		client.RefreshTokenExpiresIn = input.RefreshTokenExpiresIn
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrClientExists) {
			return nil, errors.Wrap(domainerrors.ErrConflict, "client already exists")
		}

		return nil, errors.Wrap(err, "failed to create client")
	}

	s.log(ctx).Info("registered client",
		slog.String("client_id", client.ClientID), slog.String("name", client.Name))

	return &usecase.ClientCredentials{Client: client, ClientSecret: secret}, nil
}

func (s *clientService) RotateSecret(ctx context.Context, clientID string) (*usecase.ClientCredentials, error) {
	client, err := s.clientRepo.FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotFound, "client not found")
		}

		return nil, errors.Wrap(err, "failed to load client")
	}

	secret, err := s.generator.ClientSecret()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate client secret")
	}

	secretHash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash client secret")
	}

	if err := s.clientRepo.UpdateSecretHash(ctx, clientID, secretHash); err != nil {
		return nil, errors.Wrap(err, "failed to update client secret")
	}
	client.SecretHash = secretHash

	s.log(ctx).Info("rotated client secret", slog.String("client_id", clientID))

	return &usecase.ClientCredentials{Client: client, ClientSecret: secret}, nil
}

func (s *clientService) DeactivateClient(ctx context.Context, clientID string) error {
	if err := s.clientRepo.SetActive(ctx, clientID, false); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "client not found")
		}

		return errors.Wrap(err, "failed to deactivate client")
	}

	s.log(ctx).Info("deactivated client", slog.String("client_id", clientID))

	return nil
}

func (s *clientService) DeleteClient(ctx context.Context, clientID string) error {
	if err := s.clientRepo.Delete(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "client not found")
		}

		return errors.Wrap(err, "failed to delete client")
	}

	s.log(ctx).Info("deleted client", slog.String("client_id", clientID))

	return nil
}

func (s *clientService) ListClients(ctx context.Context) ([]*entity.Client, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}

	return clients, nil
}
