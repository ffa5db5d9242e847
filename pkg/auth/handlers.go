package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "smartshelf_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour // 7 days
)

type handler struct {
	authService     *Service
	activityService *activity.Service
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, RegisterOptions{
		Username:   params.Username,
		Email:      params.Email,
		Password:   params.Password,
		RollNumber: params.RollNumber,
		Phone:      params.Phone,
	})
	if err != nil {
		return err
	}

	ip := c.RealIP()
	details := "Registration successful"
	h.activityService.Record(ctx, activity.Entry{
		Action:    models.ActionLogin,
		UserID:    &user.ID,
		Details:   &details,
		IPAddress: &ip,
	})

	return errors.WithStack(c.JSON(http.StatusCreated, user))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookie(c, token, int(CookieMaxAge.Seconds()))

	ip := c.RealIP()
	h.activityService.Record(ctx, activity.Entry{
		Action:    models.ActionLogin,
		UserID:    &user.ID,
		IPAddress: &ip,
	})

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) logout(c echo.Context) error {
	ctx := c.Request().Context()

	if user, ok := UserFromContext(c); ok {
		ip := c.RealIP()
		h.activityService.Record(ctx, activity.Entry{
			Action:    models.ActionLogout,
			UserID:    &user.ID,
			IPAddress: &ip,
		})
	}

	// Clear cookie by setting MaxAge to -1
	h.setSessionCookie(c, "", -1)

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"}))
}

func (h *handler) me(c echo.Context) error {
	user, ok := UserFromContext(c)
	if !ok {
		return errors.WithStack(c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"}))
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) setSessionCookie(c echo.Context, token string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
