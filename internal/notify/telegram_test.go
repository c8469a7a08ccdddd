package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TicketMonitor/internal/config"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestTelegramBroadcastIsolatesFailingDestination(t *testing.T) {
	var mu sync.Mutex
	var seen []sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		if req.ChatID == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{
		BaseURL:  srv.URL,
		BotToken: "TOKEN",
		ChatIDs:  []string{"first", "bad", "last"},
		Timeout:  time.Second,
	}, quietLogger())

	err := tg.Broadcast(context.Background(), "<b>hello</b>")
	if err == nil {
		t.Fatalf("expected overall failure because of the bad destination")
	}
	if !strings.Contains(err.Error(), "chat bad") || strings.Contains(err.Error(), "chat first") {
		t.Fatalf("expected error to name only the bad chat, got %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected delivery attempted to all 3 destinations, got %d", len(seen))
	}
	attempted := map[string]bool{}
	for _, req := range seen {
		attempted[req.ChatID] = true
	}
	if !attempted["first"] || !attempted["bad"] || !attempted["last"] {
		t.Fatalf("expected every destination to be attempted, got %+v", seen)
	}
	for _, req := range seen {
		if req.ParseMode != "HTML" || !req.DisableWebPagePreview || req.Text != "<b>hello</b>" {
			t.Fatalf("unexpected request body %+v", req)
		}
	}
}

func TestTelegramBroadcastAllSucceed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BaseURL: srv.URL, BotToken: "T", ChatIDs: []string{"1", "2"}}, quietLogger())
	if err := tg.Broadcast(context.Background(), "hi"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestTelegramBroadcastNotConfigured(t *testing.T) {
	tg := NewTelegram(config.TelegramConfig{ChatIDs: []string{"1"}}, quietLogger())
	if err := tg.Broadcast(context.Background(), "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without token, got %v", err)
	}
	tg = NewTelegram(config.TelegramConfig{BotToken: "T"}, quietLogger())
	if err := tg.Broadcast(context.Background(), "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without chat ids, got %v", err)
	}
}

func TestTelegramTransportErrorRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tg := NewTelegram(config.TelegramConfig{BaseURL: srv.URL, BotToken: "SECRET123", ChatIDs: []string{"1"}, Timeout: time.Second}, quietLogger())
	err := tg.Broadcast(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if strings.Contains(err.Error(), "SECRET123") {
		t.Fatalf("expected token redacted from error, got %v", err)
	}
}

func TestTelegramSlowDestinationsDoNotStarveHealthyOne(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.HasPrefix(req.ChatID, "slow") {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		mu.Lock()
		delivered = append(delivered, req.ChatID)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	defer close(release)

	tg := NewTelegram(config.TelegramConfig{
		BaseURL:  srv.URL,
		BotToken: "T",
		ChatIDs:  []string{"slow1", "slow2", "good"},
		Timeout:  200 * time.Millisecond,
	}, quietLogger())

	// 整体时限小于两个慢目的地的时限之和
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := tg.Broadcast(ctx, "hi")
	if err == nil {
		t.Fatalf("expected failure from the slow destinations")
	}
	if strings.Contains(err.Error(), "chat good") {
		t.Fatalf("healthy destination must not fail: %v", err)
	}
	if !strings.Contains(err.Error(), "chat slow1") || !strings.Contains(err.Error(), "chat slow2") {
		t.Fatalf("expected both slow destinations reported, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 || delivered[0] != "good" {
		t.Fatalf("expected healthy destination delivered, got %v", delivered)
	}
}
