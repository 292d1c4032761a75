package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/limbo/prayerbot/pkg/entity"
	"github.com/limbo/prayerbot/pkg/httputil"
)

// Update mirrors the subset of a Telegram update the bot consumes.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	From *User  `json:"from"`
	Text string `json:"text"`
}

type CallbackQuery struct {
	From *User  `json:"from"`
	Data string `json:"data"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Webhook decodes one update and routes it. The transport always gets a 200
// for well-formed updates: per-event failures are the service's problem and
// must not make Telegram re-deliver.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var update Update
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&update)
	if err != nil {
		logger.Error("webhook error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		s.botService.HandleButton(ctx, entity.ButtonEvent{
			UserID: update.CallbackQuery.From.ID,
			Name:   update.CallbackQuery.From.FirstName,
			Data:   update.CallbackQuery.Data,
		})
	case update.Message != nil && update.Message.From != nil:
		ev := entity.TextEvent{
			UserID: update.Message.From.ID,
			Name:   update.Message.From.FirstName,
			Text:   strings.TrimSpace(update.Message.Text),
		}
		if strings.HasPrefix(ev.Text, "/start") {
			s.botService.HandleStart(ctx, ev)
		} else {
			s.botService.HandleText(ctx, ev)
		}
	default:
		logger.Info("webhook: update without message or callback, ignored")
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"ok": true})
}
