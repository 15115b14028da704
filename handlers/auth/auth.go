// Package auth verifies the bearer tokens that carry caller identity.
// The identity provider itself lives outside this service; deployments
// put a gateway in front that issues HS256 tokens with the user identity
// in the subject claim. For local development the service can mint its
// own tokens when AUTH_DEV_TOKENS=1.
package auth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"canvas-collab/core"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var (
	jwtSecret []byte
	devTokens bool
)

// AppClaims represents the custom claims for the JWT. The subject is the
// opaque user identity.
type AppClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

func InitAuth() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}

	devTokens = os.Getenv("AUTH_DEV_TOKENS") == "1"
	if devTokens {
		logrus.Warn("Dev token minting is enabled. Do not use in production.")
	}
}

// HandleToken mints a token for the requested user identity. Only enabled
// with AUTH_DEV_TOKENS=1; otherwise the endpoint reports that no provider
// is configured, matching the out-of-band identity model.
func HandleToken(w http.ResponseWriter, r *http.Request) {
	if !devTokens {
		http.Error(w, "Authentication provider not configured", http.StatusNotImplemented)
		return
	}

	var req struct {
		User core.User `json:"user"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.User == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "user is required"})
		return
	}

	token, err := CreateJWT(req.User)
	if err != nil {
		logrus.WithError(err).Error("Failed to create JWT")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "failed to create token"})
		return
	}

	render.JSON(w, r, map[string]string{"token": token})
}

// CreateJWT signs a token whose subject is the given user identity.
func CreateJWT(user core.User) (string, error) {
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 7)), // 1 week
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseJWT validates a token and returns its claims.
func ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
