package main

import (
	"fmt"
	"net/http"

	"github.com/jazzband/jazzhands"
	"github.com/jazzband/jazzhands/internal/config"
	"github.com/jazzband/jazzhands/internal/sessionstore"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleAuthorize(e echo.Context) error {
	state, err := s.states.New()
	if err != nil {
		return err
	}

	return e.Redirect(http.StatusFound, s.client.AuthorizeURL(state))
}

// handleCallback never fails loudly on a bad authorization: a denied consent,
// a missing code, a bad state or a rejected code all send the visitor on to
// next without a token.
func (s *Server) handleCallback(e echo.Context) error {
	ctx := e.Request().Context()
	next := jazzhands.SafeRedirect(e.QueryParam("next"), "/")

	if err := s.states.Verify(e.QueryParam("state")); err != nil {
		s.logger.Info("ignoring callback with invalid state", "err", err, "provider_error", e.QueryParam("error"))
		return e.Redirect(http.StatusFound, next)
	}

	token, err := s.client.ExchangeCode(ctx, e.QueryParam("code"))
	if err != nil {
		s.logger.Info("authorization not completed", "err", err, "provider_error", e.QueryParam("error"))
		return e.Redirect(http.StatusFound, next)
	}

	sess, err := session.Get(config.SessionCookieName, e)
	if err != nil {
		return fmt.Errorf("could not load session: %w", err)
	}

	// make sure the session is empty
	sess.Values = map[interface{}]interface{}{}
	sess.Values[sessionstore.AccessTokenKey] = token

	if err := sess.Save(e.Request(), e.Response()); err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}

	return e.Redirect(http.StatusFound, next)
}
