package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maticastro/authgate/internal/domain/repository"
	tokens "github.com/maticastro/authgate/internal/security/token"
)

// tokenPair is a freshly issued access/refresh pair. RefreshToken is the raw
// opaque value; only its hash ever reaches storage.
type tokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	RefreshTTL      time.Duration
}

// issuePair signs an access token and persists a new refresh token for the
// user. Shared by login and refresh.
func issuePair(ctx context.Context, deps Deps, userID int64, rememberMe bool) (*tokenPair, error) {
	accessToken, accessExp, err := deps.Issuer.SignAccess(userID, rememberMe)
	if err != nil {
		return nil, err
	}

	rawRefresh, err := tokens.GenerateOpaque(32)
	if err != nil {
		return nil, err
	}

	refreshTTL := deps.RefreshTTL
	if rememberMe {
		refreshTTL = deps.RefreshTTLRemember
	}

	err = deps.Store.Tokens().Create(ctx, repository.CreateRefreshTokenInput{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokens.SHA256Hex(rawRefresh),
		ExpiresAt: time.Now().Add(refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &tokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExp,
		RefreshToken:    rawRefresh,
		RefreshTTL:      refreshTTL,
	}, nil
}
