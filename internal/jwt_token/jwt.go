package jwttoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/requestcontext"

	"github.com/golang-jwt/jwt/v5"
)

// Scopes granted to operator tokens. Reads are public; every state-changing
// endpoint requires one of these.
const (
	ScopeWallet       = "wallet:write"
	ScopeInstitutions = "institutions:write"
	ScopeDiplomas     = "diplomas:write"
)

// AllScopes is the default grant for a full operator.
var AllScopes = []string{ScopeWallet, ScopeInstitutions, ScopeDiplomas}

// OperatorClaims are the claims carried by an operator bearer token.
// The operator name travels in the standard subject.
type OperatorClaims struct {
	Scope []string `json:"scope"`
	Env   string   `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 operator tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
	env        string
}

func NewJWTService(signingKey, issuer, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// SetEnv annotates issued tokens with an environment string (e.g. "sepolia").
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// GenerateOperatorToken signs a token for operator with the given scopes and
// returns it together with its JTI.
func (s *JWTService) GenerateOperatorToken(ctx context.Context, operator string, scopes []string) (string, string, error) {
	if operator == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "operator cannot be empty")
	}
	if len(scopes) == 0 {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "scopes cannot be empty")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	jti := hex.EncodeToString(b)
	now := requestcontext.Now(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, OperatorClaims{
		Scope: scopes,
		Env:   s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ValidateToken checks signature, algorithm, expiry, issuer, and audience.
func (s *JWTService) ValidateToken(tokenString string) (*OperatorClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*OperatorClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no operator")
	}
	return claims, nil
}
