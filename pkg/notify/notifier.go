package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Notifier delivers a booking notification to a recipient.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, to, subject string, fields map[string]string) error
	Name() string
}

// Message is the serialized form of a notification published to a broker
type Message struct {
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Fields  map[string]string `json:"fields"`
	SentAt  time.Time         `json:"sent_at"`
}

func newMessage(to, subject string, fields map[string]string) *Message {
	return &Message{To: to, Subject: subject, Fields: fields, SentAt: time.Now().UTC()}
}

func (m *Message) encode() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return body, nil
}

// PlainText renders fields as "key: value" lines in key order
func PlainText(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, fields[k])
	}
	return b.String()
}
