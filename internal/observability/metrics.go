package observability

// MetricKey names a pre-registered instrument. Backends refuse unknown keys
// rather than registering on the fly, so the full set lives here.
type MetricKey string

// Request-path instruments. use_case labels carry the dotted use-case name
// (checkout.place_order, payment.initiate); outcome is success|error.
const (
	MUsecaseRequests MetricKey = "usecase_requests_total"
	MUsecaseDuration MetricKey = "usecase_duration_seconds"

	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"
)

// Outbound-call instruments, labelled by peer (safepay, bus) and endpoint.
const (
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)

// MWebhookEvents counts gateway webhook deliveries by reported state and
// processing outcome.
const MWebhookEvents MetricKey = "webhook_events_total"
