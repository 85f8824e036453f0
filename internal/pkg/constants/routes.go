package constants

// Static route constants
const (
	PublicRoute   = "/"
	ConnectRoute  = "/connect"
	WebhooksRoute = "/webhooks"
	APIv1Route    = "/api/v1"
)
