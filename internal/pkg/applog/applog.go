package applog

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/quotebeam/quotebeam/internal/pkg/env"
)

var logg *logrus.Logger

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)
	logg.SetLevel(logrus.InfoLevel)
	if env.GetEnv("LOG_LEVEL", "") == "debug" {
		logg.SetLevel(logrus.DebugLevel)
	}
}

// GetLogger returns the shared application logger.
func GetLogger() *logrus.Logger {
	return logg
}

// WithEvent returns an entry carrying the webhook event context that every
// pipeline log line should include.
func WithEvent(eventID, eventType string) *logrus.Entry {
	return logg.WithFields(logrus.Fields{
		"event_id":   eventID,
		"event_type": eventType,
	})
}
