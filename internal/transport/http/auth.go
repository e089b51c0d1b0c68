package http

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/services/auth"
	"coffee_configurator/internal/transport/http/dto/request"
	"coffee_configurator/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

const (
	adminUserKey = "admin_user"
	basicRealm   = `Basic realm="admin"`
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>Вход</title></head>
<body>
<form method="post" action="/login">
{{if .Error}}<p style="color:#c00">{{.Error}}</p>{{end}}
<label>Логин <input name="username" value="{{.Username}}" autofocus></label>
<label>Пароль <input name="password" type="password"></label>
<button type="submit">Войти</button>
</form>
</body>
</html>
`))

type loginPage struct {
	Username string
	Error    string
}

func renderLogin(c echo.Context, status int, page loginPage) error {
	var buf bytes.Buffer
	if err := loginTemplate.Execute(&buf, page); err != nil {
		return err
	}

	return c.HTMLBlob(status, buf.Bytes())
}

// LoginPage godoc
// @Summary Форма входа
// @Tags auth
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /login [get]
func (r *Routers) LoginPage(c echo.Context) error {
	return renderLogin(c, http.StatusOK, loginPage{})
}

// Login godoc
// @Summary Вход администратора
// @Description Проверяет логин и пароль, выставляет cookie сессии и перенаправляет в админку.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param username formData string true "Логин"
// @Param password formData string true "Пароль"
// @Success 303 "Redirect to /admin/"
// @Failure 401 {string} string "Форма с ошибкой"
// @Router /login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest
	if err := c.Bind(&req); err != nil {
		return renderLogin(c, http.StatusBadRequest, loginPage{Error: "Некорректный запрос"})
	}

	if err := c.Validate(req); err != nil {
		return renderLogin(c, http.StatusUnauthorized, loginPage{Username: req.Username, Error: "Введите логин и пароль"})
	}

	token, err := r.AuthService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error("login failed", sl.Err(err))
		}

		return renderLogin(c, http.StatusUnauthorized, loginPage{Username: req.Username, Error: "Неверный логин или пароль"})
	}

	c.SetCookie(&http.Cookie{
		Name:     r.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(r.AuthService.SessionMaxAge().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("admin logged in", slog.String("username", req.Username))

	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// Logout godoc
// @Summary Выход
// @Tags auth
// @Success 303 "Redirect to /login"
// @Router /logout [get]
func (r *Routers) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     r.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusSeeOther, "/login")
}

// AdminGuard пропускает запрос с валидной cookie сессии или HTTP Basic.
// Браузер без учётных данных перенаправляется на /login.
func (r *Routers) AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cookie, err := c.Cookie(r.cookieName); err == nil && cookie.Value != "" {
			if user, err := r.AuthService.Authenticate(cookie.Value); err == nil {
				c.Set(adminUserKey, user)
				return next(c)
			}
		}

		if username, password, ok := c.Request().BasicAuth(); ok {
			user, err := r.AuthService.AuthenticateBasic(username, password)
			if err != nil {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, basicRealm)
				return c.JSON(http.StatusUnauthorized, response.ErrInvalidCredentials)
			}

			c.Set(adminUserKey, user)
			return next(c)
		}

		if wantsHTML(c) {
			return c.Redirect(http.StatusSeeOther, "/login")
		}

		c.Response().Header().Set(echo.HeaderWWWAuthenticate, basicRealm)

		return c.JSON(http.StatusUnauthorized, response.ErrNotAuthenticated)
	}
}

func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
