// Package notify sends SMS alerts to subscribed operators when a station's
// status changes to something commuters should reroute around.
package notify

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type AlertNotifier struct {
	client     *twilio.RestClient
	fromNumber string
	recipients []string
}

// NewAlertNotifierFromEnv builds a notifier from TWILIO_ACCOUNT_SID,
// TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER and ALERT_SMS_TO (comma-separated).
// Returns nil when not configured; callers treat a nil notifier as disabled.
func NewAlertNotifierFromEnv() *AlertNotifier {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	token := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM_NUMBER")
	to := SplitRecipients(os.Getenv("ALERT_SMS_TO"))

	if sid == "" || token == "" || from == "" || len(to) == 0 {
		return nil
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})

	return &AlertNotifier{client: client, fromNumber: from, recipients: to}
}

// SplitRecipients parses a comma-separated recipient list, dropping blanks.
func SplitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if number := strings.TrimSpace(part); number != "" {
			out = append(out, number)
		}
	}
	return out
}

// AlertBody renders the SMS text for a station status change.
func AlertBody(stationName, status string) string {
	return fmt.Sprintf("[LRT Density] %s: %s", stationName, status)
}

// StationAlert sends the alert to every recipient in the background.
// Delivery is best effort; failures are logged and never surfaced to the
// request that triggered the status change.
func (n *AlertNotifier) StationAlert(stationName, status string) {
	if n == nil {
		return
	}

	body := AlertBody(stationName, status)
	go func() {
		for _, to := range n.recipients {
			params := &twilioapi.CreateMessageParams{}
			params.SetFrom(n.fromNumber)
			params.SetTo(to)
			params.SetBody(body)

			if _, err := n.client.Api.CreateMessage(params); err != nil {
				log.Printf("Failed to send station alert to %s: %v", to, err)
			}
		}
	}()
}
