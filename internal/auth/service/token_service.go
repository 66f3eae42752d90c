package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	apperrors "github.com/caremesh/authcore/internal/errors"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// accessTokenClaims is the wire shape of an access token.
type accessTokenClaims struct {
	RoleCode       string `json:"role,omitempty"`
	OrganizationID string `json:"org,omitempty"`
	ChainID        string `json:"chain"`
	TokenType      string `json:"typ"`
	jwt.RegisteredClaims
}

// refreshTokenClaims is the wire shape of a refresh token. It carries only the
// identity id and the chain id.
type refreshTokenClaims struct {
	ChainID   string `json:"chain"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// tokenService implements TokenService using HS256 JWTs. Access and refresh
// signing keys are derived from one master key via HKDF-SHA256 with distinct
// info strings, so the two token kinds never share a verification key.
type tokenService struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService from the master signing key.
// Returns an error when the master key is empty.
func NewTokenService(
	masterKey string,
	issuer string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) (TokenService, error) {
	if masterKey == "" {
		return nil, apperrors.New("token signing key is not configured")
	}

	accessKey, err := deriveSigningKey([]byte(masterKey), "access-token-signing-v1")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive access signing key")
	}
	refreshKey, err := deriveSigningKey([]byte(masterKey), "refresh-token-signing-v1")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive refresh signing key")
	}

	return &tokenService{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// master key. The info string is versioned for future algorithm changes.
func deriveSigningKey(masterKey []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// IssuePair mints a new access/refresh token pair for the identity.
func (t *tokenService) IssuePair(
	identity *identityDomain.Identity,
	chainID uuid.UUID,
) (*authDomain.TokenPair, error) {
	now := t.now()
	accessExpiresAt := now.Add(t.accessTTL)
	refreshExpiresAt := now.Add(t.refreshTTL)

	orgID := ""
	if identity.OrganizationID != nil {
		orgID = identity.OrganizationID.String()
	}

	accessClaims := accessTokenClaims{
		RoleCode:       string(identity.RoleCode),
		OrganizationID: orgID,
		ChainID:        chainID.String(),
		TokenType:      tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			ID:        uuid.Must(uuid.NewV7()).String(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString(t.accessKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign access token")
	}

	refreshClaims := refreshTokenClaims{
		ChainID:   chainID.String(),
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			ID:        uuid.Must(uuid.NewV7()).String(),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString(t.refreshKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign refresh token")
	}

	return &authDomain.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// VerifyAccess verifies an access token and extracts its claims.
func (t *tokenService) VerifyAccess(token string) (*authDomain.AccessClaims, error) {
	var claims accessTokenClaims
	if err := t.parse(token, &claims, t.accessKey); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, authDomain.ErrTokenMalformed
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, authDomain.ErrTokenMalformed
	}
	chainID, err := uuid.Parse(claims.ChainID)
	if err != nil {
		return nil, authDomain.ErrTokenMalformed
	}

	var orgID *uuid.UUID
	if claims.OrganizationID != "" {
		parsed, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			return nil, authDomain.ErrTokenMalformed
		}
		orgID = &parsed
	}

	return &authDomain.AccessClaims{
		IdentityID:     identityID,
		RoleCode:       identityDomain.RoleCode(claims.RoleCode),
		OrganizationID: orgID,
		ChainID:        chainID,
		ExpiresAt:      claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefresh verifies a refresh token and extracts its claims.
func (t *tokenService) VerifyRefresh(token string) (*authDomain.RefreshClaims, error) {
	var claims refreshTokenClaims
	if err := t.parse(token, &claims, t.refreshKey); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, authDomain.ErrTokenMalformed
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, authDomain.ErrTokenMalformed
	}
	chainID, err := uuid.Parse(claims.ChainID)
	if err != nil {
		return nil, authDomain.ErrTokenMalformed
	}

	return &authDomain.RefreshClaims{
		IdentityID: identityID,
		ChainID:    chainID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// parse verifies signature, expiry, and issuer, mapping library errors to the
// domain taxonomy.
func (t *tokenService) parse(token string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(parsedToken *jwt.Token) (any, error) {
			if parsedToken.Method != jwt.SigningMethodHS256 {
				return nil, authDomain.ErrTokenMalformed
			}
			return key, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return authDomain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return authDomain.ErrTokenBadSignature
		default:
			return authDomain.ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return authDomain.ErrTokenMalformed
	}
	return nil
}

// HashToken hashes a plain token using SHA-256 for at-rest storage.
// Returns the hash as a hexadecimal string.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}
