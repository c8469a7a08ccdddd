package service

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"TicketMonitor/internal/model"
	"TicketMonitor/internal/notify"
)

const defaultBookingURL = "https://shop.royalchallengers.com/ticket"

// availabilityMessage 可售告警：广播为HTML，告警为纯文本标题+正文
func availabilityMessage(ev model.TicketEvent, bookingURL string) notify.Message {
	if bookingURL == "" {
		bookingURL = defaultBookingURL
	}
	link := bookingURL + "?event=" + url.QueryEscape(string(ev.Code))

	var b strings.Builder
	b.WriteString("<b>🚨 RCB MATCH TICKETS AVAILABLE! 🚨</b>\n\n")
	fmt.Fprintf(&b, "<b>Match:</b> %s\n", html.EscapeString(ev.Name))
	fmt.Fprintf(&b, "<b>Date:</b> %s\n", html.EscapeString(ev.DisplayDate))
	fmt.Fprintf(&b, "<b>Venue:</b> %s, %s\n", html.EscapeString(ev.VenueName), html.EscapeString(ev.CityName))
	fmt.Fprintf(&b, "<b>Price Range:</b> %s\n\n", html.EscapeString(ev.PriceRange))
	b.WriteString("<b>Quick Links:</b>\n")
	fmt.Fprintf(&b, "• <a href='%s'>Book Tickets Now</a>\n", html.EscapeString(link))
	fmt.Fprintf(&b, "• <a href='%s'>RCB Ticket Page</a>", html.EscapeString(bookingURL))

	return notify.Message{
		Title: "RCB Tickets Available - " + ev.Name,
		Body:  fmt.Sprintf("Tickets available for %s on %s", ev.Name, ev.DisplayDate),
		Text:  b.String(),
	}
}

func startupMessage(filter model.MonitorFilter) notify.Message {
	watching := "Monitoring tickets for " + filter.Describe()
	return notify.Message{
		Title: "RCB Ticket Monitor Started",
		Body:  watching,
		Text:  "🔄 RCB Ticket Monitor is running!\n\n" + html.EscapeString(watching),
	}
}

// shutdownMessage reason 为 nil 表示收到退出信号
func shutdownMessage(reason error) notify.Message {
	if reason != nil {
		var fe *FatalError
		if errors.As(reason, &fe) && fe.Err != nil {
			reason = fe.Err
		}
		return notify.Message{
			Title: "RCB Ticket Monitor Stopped",
			Body:  "Monitor stopped after a fatal error: " + reason.Error(),
			Text:  "🛑 RCB Ticket Monitor stopped after a fatal error\n\n" + html.EscapeString(reason.Error()),
		}
	}
	return notify.Message{
		Title: "RCB Ticket Monitor Stopped",
		Body:  "Monitor stopped by user",
		Text:  "🛑 RCB Ticket Monitor stopped by user",
	}
}

func testMessage() notify.Message {
	return notify.Message{
		Title: "RCB Ticket Monitor Test",
		Body:  "Testing PagerDuty integration",
		Text: "🔍 <b>Notification Integration Test</b>\n\n" +
			"If you see this message, both Telegram and PagerDuty integrations are working correctly!\n" +
			"You will receive notifications when tickets become available.",
	}
}
