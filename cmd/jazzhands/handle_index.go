package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jazzband/jazzhands"
	"github.com/jazzband/jazzhands/internal/config"
	"github.com/jazzband/jazzhands/internal/sessionstore"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleIndex(e echo.Context) error {
	sess, err := session.Get(config.SessionCookieName, e)
	if err != nil {
		return fmt.Errorf("could not load session: %w", err)
	}

	token := sessionstore.AccessToken(sess)
	if token == "" {
		return s.handleAuthorize(e)
	}

	outcome, err := s.gate.Admit(e.Request().Context(), token)
	if errors.Is(err, jazzhands.ErrAccessDenied) {
		return echo.NewHTTPError(http.StatusForbidden)
	}
	if err != nil {
		return err
	}

	return e.Render(http.StatusOK, "index.html", outcome)
}

// handleError renders the static forbidden and error pages. Other statuses
// fall through to echo's default handler.
func (s *Server) handleError(err error, e echo.Context) {
	if e.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		status = herr.Code
	}

	var page string
	switch status {
	case http.StatusForbidden:
		page = "forbidden.html"
	case http.StatusInternalServerError:
		s.logger.Error("request failed", "path", e.Request().URL.Path, "err", err)
		page = "error.html"
	default:
		s.e.DefaultHTTPErrorHandler(err, e)
		return
	}

	if rerr := e.Render(status, page, nil); rerr != nil {
		s.logger.Error("failed to render error page", "page", page, "err", rerr)
	}
}
