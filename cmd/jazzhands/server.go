package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jazzband/jazzhands"
	"github.com/jazzband/jazzhands/internal/config"
	"github.com/jazzband/jazzhands/internal/helpers"
	"github.com/jazzband/jazzhands/internal/metrics"
	"github.com/jazzband/jazzhands/internal/sessionstore"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"
)

type Server struct {
	e      *echo.Echo
	cfg    *config.Config
	client *jazzhands.Client
	gate   *jazzhands.Gatekeeper
	states *helpers.StateSigner
	logger *slog.Logger
}

type ServerArgs struct {
	Config *config.Config
	Redis  redis.Cmdable
	// H is the http client used for provider calls, mostly replaced in tests.
	H      *http.Client
	Logger *slog.Logger
}

func NewServer(args ServerArgs) (*Server, error) {
	cfg := args.Config
	if cfg == nil {
		return nil, fmt.Errorf("no config provided")
	}

	if args.Redis == nil {
		return nil, fmt.Errorf("no redis client provided")
	}

	logger := args.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	client, err := jazzhands.NewClient(jazzhands.ClientArgs{
		H:            args.H,
		ClientId:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectUri:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		AuthUrl:      cfg.AuthURL,
		TokenUrl:     cfg.TokenURL,
		ApiUrl:       cfg.APIURL,
		Metrics:      m,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create provider client: %w", err)
	}

	gate, err := jazzhands.NewGatekeeper(jazzhands.GatekeeperArgs{
		Client:     client,
		Org:        cfg.OrgID,
		TeamId:     cfg.TeamID,
		AdminToken: cfg.AdminToken,
		WebUrl:     cfg.WebURL,
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gatekeeper: %w", err)
	}

	states, err := helpers.NewStateSigner([]byte(cfg.SecretKey), config.StateLifetime)
	if err != nil {
		return nil, err
	}

	store, err := sessionstore.NewStore(sessionstore.StoreArgs{
		Repository: sessionstore.NewRedisRepository(args.Redis),
		Options: sessions.Options{
			Path:     "/",
			MaxAge:   int(config.SessionLifetime.Seconds()),
			HttpOnly: true,
			Secure:   cfg.CookieSecure(),
			SameSite: http.SameSiteLaxMode,
		},
		SigningKey: cfg.SessionSigningKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create session store: %w", err)
	}

	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		e:      echo.New(),
		cfg:    cfg,
		client: client,
		gate:   gate,
		states: states,
		logger: logger,
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Debug = cfg.Debug
	s.e.Renderer = renderer
	s.e.HTTPErrorHandler = s.handleError

	s.e.Use(slogecho.New(logger))
	s.e.Use(middleware.Recover())
	s.e.Use(session.Middleware(store))

	s.e.GET("/", s.handleIndex)
	s.e.GET("/callback", s.handleCallback)
	s.e.GET("/metrics", echo.WrapHandler(metrics.HandlerFor(reg)))

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}
