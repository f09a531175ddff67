package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookEventIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: WebhookStatusProcessing, want: false},
		{status: WebhookStatusSucceeded, want: true},
		{status: WebhookStatusFailed, want: true},
	}
	for _, tt := range tests {
		ev := &WebhookEvent{Status: tt.status}
		assert.Equal(t, tt.want, ev.IsTerminal(), "status %q", tt.status)
	}
}
