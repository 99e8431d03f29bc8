package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grainguard/grainguard/internal/api/models"
)

// operatorIDKey is the context key for the authenticated operator ID.
type operatorIDKey struct{}

// Operator-identity errors.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Operator creates identity middleware that validates HS256 bearer tokens
// and puts the operator ID (the token subject) in the request context.
func Operator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			operatorID, err := ValidateOperatorToken(authHeader[len(bearerPrefix):], secret)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					writeUnauthorized(w, r, "token has expired")
				default:
					writeUnauthorized(w, r, "invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), operatorIDKey{}, operatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateOperatorToken parses and validates an HS256 token, returning its
// subject.
func ValidateOperatorToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}

// writeUnauthorized writes a 401 Unauthorized response. Implemented here to
// avoid an import cycle with the response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetOperatorID retrieves the authenticated operator ID from the context.
// Returns an empty string if not authenticated.
func GetOperatorID(ctx context.Context) string {
	if id, ok := ctx.Value(operatorIDKey{}).(string); ok {
		return id
	}
	return ""
}
