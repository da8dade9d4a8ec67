// Package endpoint models the configuration objects of connector endpoints and binds
// endpoint URIs onto them through the property configurer.
package endpoint

import "time"

// Endpoint is a bound connector configuration.
type Endpoint interface {
	// Scheme returns the URI scheme the endpoint was created for.
	Scheme() string
	// Path returns the scheme-specific path, e.g. "drive-files/list".
	Path() string
	// Targets returns pointers to the configuration objects that receive properties,
	// in the order they are tried.
	Targets() []any
}

// ExceptionHandler receives failures raised while a consumer polls.
type ExceptionHandler interface {
	HandleException(message string, err error)
}

// PollStrategy lets callers veto or observe scheduled polls.
type PollStrategy interface {
	Begin(endpoint string) bool
	Commit(endpoint string, polled int)
	Rollback(endpoint string, retryCounter int, err error) bool
}

// ScheduledExecutor runs scheduled consumer tasks.
type ScheduledExecutor interface {
	Schedule(task func(), delay time.Duration)
}

// DriveClientFactory creates clients for the cloud drive API.
type DriveClientFactory interface {
	NewClient(cfg DriveConfiguration) (any, error)
}
