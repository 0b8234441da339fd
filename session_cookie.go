package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const sessionCookieName = "session"

type SessionJWT struct {
	jwtSecret string
	maxAge    time.Duration
}

func NewSessionJWT(jwtSecret string, maxAge time.Duration) *SessionJWT {
	return &SessionJWT{jwtSecret, maxAge}
}

func (s SessionJWT) GenerateSessionJWT(sessionID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": sessionID, "exp": jwt.NewNumericDate(time.Now().Add(s.maxAge))})
	return token.SignedString([]byte(s.jwtSecret))
}

// GetSessionIDFromJWT returns "" for tokens that are malformed, expired or
// signed with another secret.
func (s SessionJWT) GetSessionIDFromJWT(tokenString string) string {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return ""
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sid, _ := claims["sid"].(string)
		return sid
	}
	return ""
}

// cookieSession carries the session id in a signed, http-only cookie.
type cookieSession struct {
	w      http.ResponseWriter
	r      *http.Request
	tokens *SessionJWT
}

func (c cookieSession) SessionID() (string, bool) {
	cookie, err := c.r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	sid := c.tokens.GetSessionIDFromJWT(cookie.Value)
	return sid, sid != ""
}

func (c cookieSession) Bind(sessionID string) error {
	token, err := c.tokens.GenerateSessionJWT(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.tokens.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c cookieSession) Forget() {
	http.SetCookie(c.w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// formSession is used by clients that registered explicitly and send their
// id back as the "uuid" form value.
type formSession struct {
	sessionID string
}

func (f formSession) SessionID() (string, bool) {
	return f.sessionID, f.sessionID != ""
}

func (f formSession) Bind(string) error {
	return nil
}

func (f formSession) Forget() {}
