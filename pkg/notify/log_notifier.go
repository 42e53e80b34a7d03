package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the application log instead of delivering them
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

// Send logs the notification at info level
func (n *LogNotifier) Send(ctx context.Context, to, subject string, fields map[string]string) error {
	entry := n.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	})
	for k, v := range fields {
		entry = entry.WithField("field_"+k, v)
	}
	entry.Info("Booking notification")
	return nil
}
