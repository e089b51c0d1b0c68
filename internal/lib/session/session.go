// Package session подписывает и проверяет cookie админской сессии
// формата "username:timestamp:hmac".
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const DefaultMaxAge = 7 * 24 * time.Hour

var (
	ErrMalformed = errors.New("malformed session token")
	ErrSignature = errors.New("invalid session signature")
	ErrExpired   = errors.New("session expired")
)

type Signer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewSigner(secret string, maxAge time.Duration) *Signer {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Signer{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

func (s *Signer) MaxAge() time.Duration {
	return s.maxAge
}

func (s *Signer) Sign(username string) string {
	payload := username + ":" + strconv.FormatInt(s.now().Unix(), 10)

	return payload + ":" + s.mac(payload)
}

// Verify возвращает имя пользователя из валидного токена.
func (s *Signer) Verify(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", ErrMalformed
	}

	username, tsStr, sig := parts[0], parts[1], parts[2]

	expected := s.mac(username + ":" + tsStr)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", ErrSignature
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return "", ErrMalformed
	}

	if s.now().Sub(time.Unix(ts, 0)) > s.maxAge {
		return "", ErrExpired
	}

	return username, nil
}

func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))

	return hex.EncodeToString(h.Sum(nil))
}
