package escalation

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/beacon-labs/wikimind/internal/config"
)

// DeepLinkClaims identify the chunk/thread a notification's action buttons
// ("View Thread", "Acknowledge", "Mark Resolved") resolve against once the
// recipient clicks through (spec §4.8 step 2-3).
type DeepLinkClaims struct {
	ChunkID   string `json:"chunk_id"`
	ThreadRef string `json:"thread_ref"`
	Action    string `json:"action"`
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func newTokenIssuer(cfg *config.EscalationConfig) *tokenIssuer {
	return &tokenIssuer{
		secret: []byte(cfg.DeepLinkSecret),
		ttl:    time.Duration(cfg.DeepLinkTTLHours) * time.Hour,
	}
}

// Issue signs a deep-link token embedding which chunk/thread/action an
// action button resolves to, so Acknowledge/Mark Resolved clicks can be
// handled without a server-side session.
func (i *tokenIssuer) Issue(claims DeepLinkClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"chunk_id":   claims.ChunkID,
		"thread_ref": claims.ThreadRef,
		"action":     claims.Action,
		"exp":        time.Now().Add(i.ttl).Unix(),
		"iat":        time.Now().Unix(),
	})
	return token.SignedString(i.secret)
}

// Parse validates a deep-link token and extracts its claims.
func (i *tokenIssuer) Parse(raw string) (DeepLinkClaims, error) {
	var claims DeepLinkClaims
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return claims, errors.New("invalid or expired deep-link token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return claims, errors.New("invalid deep-link token claims")
	}
	claims.ChunkID, _ = mapClaims["chunk_id"].(string)
	claims.ThreadRef, _ = mapClaims["thread_ref"].(string)
	claims.Action, _ = mapClaims["action"].(string)
	return claims, nil
}
