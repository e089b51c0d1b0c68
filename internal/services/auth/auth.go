package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/lib/session"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Credentials — учётные данные единственного администратора
type Credentials struct {
	Username string
	Password string
	// PasswordHash (bcrypt), если задан, используется вместо Password
	PasswordHash string
}

type Auth struct {
	log    *slog.Logger
	creds  Credentials
	signer *session.Signer
}

func New(log *slog.Logger, creds Credentials, signer *session.Signer) *Auth {
	return &Auth{
		log:    log,
		creds:  creds,
		signer: signer,
	}
}

// SessionMaxAge — время жизни cookie сессии.
func (a *Auth) SessionMaxAge() time.Duration {
	return a.signer.MaxAge()
}

// CheckCredentials сравнивает логин и пароль с настроенными за постоянное время.
func (a *Auth) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.creds.Username)) == 1

	var passOK bool
	if a.creds.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(a.creds.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(a.creds.Password)) == 1
	}

	return userOK && passOK && a.creds.Username != ""
}

// Login проверяет учётные данные и выдаёт подписанный токен сессии.
func (a *Auth) Login(_ context.Context, username, password string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	log.Info("attempting to login admin")

	if !a.CheckCredentials(username, password) {
		log.Info("invalid credentials")

		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	log.Info("admin logged in successfully")

	return a.signer.Sign(username), nil
}

// Authenticate проверяет токен сессии и возвращает имя пользователя.
func (a *Auth) Authenticate(token string) (string, error) {
	const op = "auth.Authenticate"

	if token == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	username, err := a.signer.Verify(token)
	if err != nil {
		a.log.Debug("session rejected", slog.String("op", op), sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	return username, nil
}

// AuthenticateBasic проверяет учётные данные HTTP Basic.
func (a *Auth) AuthenticateBasic(username, password string) (string, error) {
	const op = "auth.AuthenticateBasic"

	if !a.CheckCredentials(username, password) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return username, nil
}
