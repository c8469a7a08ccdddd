package ticketgenie

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TicketMonitor/internal/adapter"
	"TicketMonitor/internal/config"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestAdapter(url string) *Adapter {
	return NewAdapter(config.SourceConfig{
		Type:      SourceType,
		URL:       url,
		Timeout:   time.Second,
		UserAgent: "test-agent",
		Origin:    "https://shop.royalchallengers.com",
		Referer:   "https://shop.royalchallengers.com/",
	}, quietLogger()).(*Adapter)
}

func TestFetchEventsDecodesResultAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("Origin"); got != "https://shop.royalchallengers.com" {
			t.Errorf("Origin = %q", got)
		}
		if got := r.Header.Get("Referer"); got != "https://shop.royalchallengers.com/" {
			t.Errorf("Referer = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":[{"event_Code":"E1","event_Name":"RCB vs DC","team_1":"Royal Challengers Bengaluru","team_2":"Delhi Capitals","event_Date":"2024-04-15T19:30:00","event_Display_Date":"Mon, Apr 15","event_Button_Text":"BUY TICKETS","venue_Name":"M. Chinnaswamy Stadium","city_Name":"Bengaluru","event_Price_Range":"2000 - 42000"}]}`)
	}))
	defer srv.Close()

	events, err := newTestAdapter(srv.URL).FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Code != "E1" || e.Team2 != "Delhi Capitals" || !e.Available() || e.VenueName != "M. Chinnaswamy Stadium" {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestFetchEventsNon200IsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	events, err := newTestAdapter(srv.URL).FetchEvents(context.Background())
	if err != nil || events != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", events, err)
	}
}

func TestFetchEventsEmptyResultIsNoData(t *testing.T) {
	for _, body := range []string{`{"result":[]}`, `{}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		events, err := newTestAdapter(srv.URL).FetchEvents(context.Background())
		srv.Close()
		if err != nil || len(events) != 0 {
			t.Fatalf("body %s: expected no data, got (%v, %v)", body, events, err)
		}
	}
}

func TestFetchEventsMalformedJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>blocked</html>`)
	}))
	defer srv.Close()

	if _, err := newTestAdapter(srv.URL).FetchEvents(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRegisteredInFactoryRegistry(t *testing.T) {
	src, err := adapter.NewEventSource(config.SourceConfig{Type: "TicketGenie", URL: "http://example.invalid"}, quietLogger())
	if err != nil {
		t.Fatalf("NewEventSource: %v", err)
	}
	if src.GetName() != "TicketGenie" {
		t.Fatalf("unexpected source %s", src.GetName())
	}
	if _, err := adapter.NewEventSource(config.SourceConfig{Type: "unknown"}, quietLogger()); err == nil {
		t.Fatalf("expected error for unregistered source type")
	}
}

func TestFetchEventsSkipsOnlyMalformedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":[
			{"event_Code":"E1","event_Name":"RCB vs DC","team_1":"Royal Challengers Bengaluru","team_2":"Delhi Capitals","event_Date":"2024-04-15T19:30:00","event_Button_Text":"BUY TICKETS"},
			{"event_Code":42,"event_Name":"RCB vs MI","team_1":"Royal Challengers Bengaluru","team_2":"Mumbai Indians","event_Date":"2024-04-20T19:30:00"},
			{"event_Code":"E3","event_Name":"RCB vs PBKS","team_1":7,"team_2":"Punjab Kings"},
			{"event_Code":{"nested":true},"event_Name":"RCB vs KKR"}
		]}`)
	}))
	defer srv.Close()

	events, err := newTestAdapter(srv.URL).FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 decodable events, got %d: %+v", len(events), events)
	}
	if events[0].Code != "E1" || events[0].Team2 != "Delhi Capitals" || !events[0].Available() {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Code != "42" || events[1].Key() != "42" {
		t.Fatalf("expected numeric code kept as string, got %+v", events[1])
	}
}
