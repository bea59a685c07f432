package validators

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

// Claims is the subset of the identity service's access token this backend
// cares about.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessToken verifies an HS256 bearer token and extracts the caller's
// identity. The issuer must match when one is configured.
func ParseAccessToken(raw, secret, issuer string) (*Claims, error) {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing auth token")
	}

	parsed := &tokenClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	_, err := jwt.ParseWithClaims(token, parsed, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid auth token")
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "auth token subject is not a user id")
	}
	return &Claims{UserID: userID, Email: parsed.Email}, nil
}
