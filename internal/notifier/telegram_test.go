package notifier_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	"github.com/limbo/prayerbot/internal/notifier"
	"github.com/limbo/prayerbot/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path        string
	ContentType string
	Body        map[string]any
}

func newAPIStub(t *testing.T, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.ContentType = r.Header.Get("Content-Type")
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, sonic.ConfigDefault.Unmarshal(raw, &captured.Body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	t.Run("plain text", func(t *testing.T) {
		srv, captured := newAPIStub(t, `{"ok":true}`)
		n := notifier.New(srv.URL, "123:abc")
		err := n.Send(ctx, 42, "hello there", nil)
		require.NoError(t, err)
		assert.Equal(t, "/bot123:abc/sendMessage", captured.Path)
		assert.Equal(t, "application/json", captured.ContentType)
		assert.Equal(t, float64(42), captured.Body["chat_id"])
		assert.Equal(t, "hello there", captured.Body["text"])
		_, hasMarkup := captured.Body["reply_markup"]
		assert.False(t, hasMarkup, "no keyboard means no reply_markup field")
	})
	t.Run("with inline keyboard", func(t *testing.T) {
		srv, captured := newAPIStub(t, `{"ok":true}`)
		n := notifier.New(srv.URL, "123:abc")
		kb := entity.Keyboard{
			{{Text: "✅ Done", Data: "mark_done"}},
		}
		err := n.Send(ctx, 42, "pick one", kb)
		require.NoError(t, err)
		markup, ok := captured.Body["reply_markup"].(map[string]any)
		require.True(t, ok)
		rows, ok := markup["inline_keyboard"].([]any)
		require.True(t, ok)
		require.Len(t, rows, 1)
		button := rows[0].([]any)[0].(map[string]any)
		assert.Equal(t, "✅ Done", button["text"])
		assert.Equal(t, "mark_done", button["callback_data"])
	})
	t.Run("api refusal", func(t *testing.T) {
		srv, _ := newAPIStub(t, `{"ok":false,"description":"chat not found"}`)
		n := notifier.New(srv.URL, "123:abc")
		err := n.Send(ctx, 42, "hello", nil)
		assert.ErrorIs(t, err, errorvalues.ErrSendFailed)
		assert.Contains(t, err.Error(), "chat not found")
	})
	t.Run("garbage response body", func(t *testing.T) {
		srv, _ := newAPIStub(t, `<html>gateway error</html>`)
		n := notifier.New(srv.URL, "123:abc")
		err := n.Send(ctx, 42, "hello", nil)
		assert.ErrorIs(t, err, errorvalues.ErrSendFailed)
	})
	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()
		n := notifier.New(srv.URL, "123:abc")
		err := n.Send(ctx, 42, "hello", nil)
		assert.ErrorIs(t, err, errorvalues.ErrSendFailed)
	})
}
