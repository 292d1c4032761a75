package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/limbo/prayerbot/internal/service"
)

// Server terminates the chat transport: it receives Telegram webhook updates
// and hands them to the bot service as plain events.
type Server struct {
	mx            *chi.Mux
	botService    service.BotServiceI
	webhookSecret string
}

type Options struct {
	BotService service.BotServiceI
	// WebhookSecret, when set, must match the secret-token header Telegram
	// sends with each update. Empty disables the check.
	WebhookSecret string
}

func New(opts *Options) *Server {
	return &Server{
		mx:            chi.NewMux(),
		botService:    opts.BotService,
		webhookSecret: opts.WebhookSecret,
	}
}

func (s *Server) Run(address string) error {
	s.mx.Use(s.RequestIDMiddleware)
	s.mx.Use(s.SettingUpLoggerMiddleware)
	s.mx.Get("/healthz", s.Health)
	s.mx.Route("/webhook", func(r chi.Router) {
		r.Use(s.WebhookAuthMiddleware)
		r.Post("/", s.Webhook)
	})
	return http.ListenAndServe(address, s.mx)
}
