package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const UserContextKey contextKey = "user"

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 7 * 24 * time.Hour

type UserClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// IssueToken signs a HS256 token carrying the user claims.
func IssueToken(secret string, claims UserClaims, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  claims.UserID,
		"email":    claims.Email,
		"username": claims.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(TokenTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token and extracts its claims.
func ParseToken(secret, tokenString string) (UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return UserClaims{}, err
	}
	if !token.Valid {
		return UserClaims{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return UserClaims{}, jwt.ErrTokenInvalidClaims
	}
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)

	return UserClaims{UserID: userID, Email: email, Username: username}, nil
}

// Auth validates the bearer token and adds the user claims to the request context.
func Auth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				logger.Debug("❌ Missing or malformed authorization header", zap.String("path", r.URL.Path))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userClaims, err := ParseToken(secret, token)
			if err != nil {
				logger.Info("❌ Invalid token", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userClaims)))
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithUser stores user claims in a context.
func WithUser(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}
