package push

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Sender delivers a push message to one device token. Delivery failures are
// logged and swallowed by callers: a missing token or a revoked permission
// silently disables the feature for that user.
type Sender interface {
	Send(token, title, body string, data map[string]string) error
}

// FCMSender posts to the FCM legacy HTTP endpoint with a server key.
type FCMSender struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewFCMSender(endpoint, serverKey string) *FCMSender {
	return &FCMSender{
		endpoint:  endpoint,
		serverKey: serverKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type fcmPayload struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

func (s *FCMSender) Send(token, title, body string, data map[string]string) error {
	if token == "" {
		return errors.New("no device token")
	}
	if s.serverKey == "" {
		return errors.New("push messaging not configured")
	}

	if data == nil {
		data = map[string]string{}
	}
	data["message_id"] = uuid.New().String()

	payload, err := json.Marshal(fcmPayload{
		To: token,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
			Sound: "default",
		},
		Data: data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}

	return nil
}

// LogSender is used when no server key is configured; it logs instead of
// delivering so the rest of the notification path stays exercised.
type LogSender struct{}

func (LogSender) Send(token, title, body string, data map[string]string) error {
	log.Printf("push (dry-run) to %s: %s - %s", token, title, body)
	return nil
}
