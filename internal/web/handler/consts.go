package handler

const (
	// APIPath prefixes the entity REST routes.
	APIPath = "/api"

	// FilesPath serves stored uploads.
	FilesPath = "/files"

	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"

	// ErrNilFatalLogMsg is logged when a handler is created without its dependencies.
	ErrNilFatalLogMsg = "cfg or db is nil"
)
