package matcher

import (
	"io"
	"testing"

	"TicketMonitor/internal/model"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestMatchTeamSubstringCaseInsensitive(t *testing.T) {
	events := []model.TicketEvent{
		{Code: "E1", Team1: "Royal Challengers", Team2: "Delhi Capitals"},
	}

	got := Match(events, model.MonitorFilter{Team: "Delhi"}, quietLogger())
	if len(got) != 1 || got[0].Code != "E1" {
		t.Fatalf("expected E1 to match Delhi, got %+v", got)
	}

	got = Match(events, model.MonitorFilter{Team: "delhi capitals"}, quietLogger())
	if len(got) != 1 {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}

	got = Match(events, model.MonitorFilter{Team: "Mumbai"}, quietLogger())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result for Mumbai, got %#v", got)
	}
}

func TestMatchTeamChecksBothSides(t *testing.T) {
	events := []model.TicketEvent{
		{Code: "home", Team1: "Delhi Capitals", Team2: "Royal Challengers"},
		{Code: "away", Team1: "Royal Challengers", Team2: "Delhi Capitals"},
		{Code: "other", Team1: "Royal Challengers", Team2: "Punjab Kings"},
	}
	got := Match(events, model.MonitorFilter{Team: "Delhi"}, quietLogger())
	if len(got) != 2 || got[0].Code != "home" || got[1].Code != "away" {
		t.Fatalf("expected home and away matches, got %+v", got)
	}
}

func TestMatchDate(t *testing.T) {
	events := []model.TicketEvent{
		{Code: "E1", Date: "2024-04-15T19:30:00"},
		{Code: "E2", Date: "2024-04-16T19:30:00"},
	}

	got := Match(events, model.MonitorFilter{Date: "2024-04-15"}, quietLogger())
	if len(got) != 1 || got[0].Code != "E1" {
		t.Fatalf("expected only E1 on 2024-04-15, got %+v", got)
	}

	got = Match(events[1:], model.MonitorFilter{Date: "2024-04-15"}, quietLogger())
	if len(got) != 0 {
		t.Fatalf("expected no match for 2024-04-16, got %+v", got)
	}
}

func TestMatchDateSkipsUnparseableRecords(t *testing.T) {
	events := []model.TicketEvent{
		{Code: "bad", Date: "15/04/2024 19:30"},
		{Code: "empty"},
		{Code: "good", Date: "2024-04-15T15:30:00"},
	}
	got := Match(events, model.MonitorFilter{Date: "2024-04-15"}, quietLogger())
	if len(got) != 1 || got[0].Code != "good" {
		t.Fatalf("expected bad records skipped and good matched, got %+v", got)
	}
}
