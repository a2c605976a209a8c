package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/ports"
	"github.com/rentalhub/marketplace-gate/internal/core/service"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/session"
)

// SessionHandlerConfig wires a SessionHandler.
type SessionHandlerConfig struct {
	Decoder     ports.CredentialDecoder
	Fetcher     ports.ProfileFetcher
	Invalidator ports.ProfileInvalidator
	Cookie      session.CookieOptions
	LoginPath   string

	// Wait bounds how long GET /api/session waits for the profile fetch.
	Wait         time.Duration
	FetchTimeout time.Duration
}

// SessionHandler exposes the session materializer over HTTP.
type SessionHandler struct {
	cfg SessionHandlerConfig
	log zerolog.Logger
}

func NewSessionHandler(cfg SessionHandlerConfig, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{cfg: cfg, log: log}
}

func (h *SessionHandler) materializer(c echo.Context) *service.Materializer {
	store := session.NewCookieStore(c.Request(), c.Response(), h.cfg.Cookie)
	return service.NewMaterializer(store, h.cfg.Decoder, h.cfg.Fetcher, service.MaterializerOptions{
		Invalidator:  h.cfg.Invalidator,
		LoginPath:    h.cfg.LoginPath,
		FetchTimeout: h.cfg.FetchTimeout,
	}, h.log)
}

// Get handles GET /api/session and returns the caller's materialized session view.
//
// @Summary      Current session
// @Description  Returns the "who am I" view. isLoading stays true when the profile did not settle in time.
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.SessionView
// @Router       /api/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	m := h.materializer(c)
	m.Sync(ctx)

	if h.cfg.Wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, h.cfg.Wait)
		defer cancel()
		if err := m.Wait(waitCtx); err != nil {
			h.log.Debug().Err(err).Msg("session view returned before profile settled")
		}
	}
	return c.JSON(http.StatusOK, m.View())
}

// Logout handles POST /api/logout. It clears the session and redirects to login.
//
// @Summary      Log out
// @Tags         session
// @Success      303
// @Router       /api/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	target := h.materializer(c).Logout(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, target)
}
