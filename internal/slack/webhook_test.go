package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logx "ctfnotice/pkg/logx"
)

func TestSendPayload(t *testing.T) {
	t.Parallel()
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(b, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
	}))
	defer srv.Close()

	wh := New(Config{WebhookURL: srv.URL, RatePerSec: 100}, logx.Nop())
	msg := Message{
		Text:   "fallback",
		Blocks: []Block{Header("head"), Divider(), Section("*bold*"), Context("_foot_")},
	}
	if err := wh.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Text != "fallback" || len(got.Blocks) != 4 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Blocks[0].Type != "header" || got.Blocks[0].Text.Type != "plain_text" {
		t.Fatalf("header block wrong: %+v", got.Blocks[0])
	}
	if got.Blocks[2].Text.Type != "mrkdwn" {
		t.Fatalf("section block wrong: %+v", got.Blocks[2])
	}
}

func TestSendSurfacesFailureBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid_blocks"))
	}))
	defer srv.Close()

	wh := New(Config{WebhookURL: srv.URL, RatePerSec: 100}, logx.Nop())
	err := wh.Send(context.Background(), Message{Text: "x"})
	if err == nil {
		t.Fatal("expected error for non-2xx")
	}
	if !strings.Contains(err.Error(), "invalid_blocks") {
		t.Fatalf("error %q should carry the response body", err)
	}
}
