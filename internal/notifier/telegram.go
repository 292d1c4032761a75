// Package notifier delivers outbound messages through the Telegram Bot API.
// It is the only place that knows the wire shape of sendMessage; the rest of
// the process deals in (user, text, keyboard) triples.
package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	"github.com/limbo/prayerbot/pkg/entity"
)

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard entity.Keyboard `json:"inline_keyboard"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type TelegramNotifier struct {
	client  *http.Client
	baseURL string
	token   string
}

// New builds a notifier against apiURL (normally https://api.telegram.org,
// overridable for tests).
func New(apiURL, token string) *TelegramNotifier {
	return &TelegramNotifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: apiURL,
		token:   token,
	}
}

func (n *TelegramNotifier) Send(ctx context.Context, userID int64, text string, keyboard entity.Keyboard) error {
	payload := sendMessageRequest{
		ChatID: userID,
		Text:   text,
	}
	if len(keyboard) > 0 {
		payload.ReplyMarkup = &replyMarkup{InlineKeyboard: keyboard}
	}
	body, err := sonic.ConfigDefault.Marshal(payload)
	if err != nil {
		return errors.New("marshalling sendMessage error: " + err.Error())
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.New("building sendMessage request error: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Join(errorvalues.ErrSendFailed, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return errors.Join(errorvalues.ErrSendFailed, err)
	}
	var apiResp sendMessageResponse
	if err := sonic.ConfigDefault.Unmarshal(raw, &apiResp); err != nil {
		return errors.Join(errorvalues.ErrSendFailed, errors.New("decoding sendMessage response: "+err.Error()))
	}
	if !apiResp.OK {
		return errors.Join(errorvalues.ErrSendFailed, fmt.Errorf("bot api refused send: %s", apiResp.Description))
	}
	return nil
}
