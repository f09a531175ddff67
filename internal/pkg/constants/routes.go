package constants

// Static route constants
const (
	WebhookCheckoutRoute = "/webhooks/checkout"
	LeadIngestRoute      = "/v1/ingest/lead"

	AdminGroup          = "/admin"
	AdminReplayRoute    = "/replay"
	AdminEventsRoute    = "/events"
	AdminRotateKeyRoute = "/tenants/:handle/rotate-key"

	// Rate limiter route names; windows are keyed (client, route name).
	RouteNameLeadCapture = "lead_capture"
)
