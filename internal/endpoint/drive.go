package endpoint

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DriveScheme is the URI scheme of cloud drive endpoints.
const DriveScheme = "google-drive"

// DriveAPIs lists the API names accepted as the first path segment.
var DriveAPIs = []string{
	"drive-about",
	"drive-changes",
	"drive-channels",
	"drive-children",
	"drive-comments",
	"drive-files",
	"drive-parents",
	"drive-permissions",
	"drive-properties",
	"drive-realtime",
	"drive-replies",
	"drive-revisions",
}

// DriveConfiguration holds the credentials shared by every drive API call.
type DriveConfiguration struct {
	APIName    string `prop:"-" yaml:"-"`
	MethodName string `prop:"-" yaml:"-"`

	AccessToken     string   `prop:"accessToken"`
	ApplicationName string   `prop:"applicationName"`
	ClientID        string   `prop:"clientId"`
	ClientSecret    string   `prop:"clientSecret"`
	RefreshToken    string   `prop:"refreshToken"`
	Scopes          []string `prop:"scopes"`
}

// SchedulerOptions controls how a polling consumer is scheduled.
// Delay and InitialDelay are expressed in TimeUnit.
type SchedulerOptions struct {
	BackoffErrorThreshold    int               `prop:"backoffErrorThreshold"`
	BackoffIdleThreshold     int               `prop:"backoffIdleThreshold"`
	BackoffMultiplier        int               `prop:"backoffMultiplier"`
	Delay                    int64             `prop:"delay"`
	Greedy                   bool              `prop:"greedy"`
	InitialDelay             int64             `prop:"initialDelay"`
	RepeatCount              int64             `prop:"repeatCount"`
	RunLoggingLevel          LoggingLevel      `prop:"runLoggingLevel"`
	ScheduledExecutorService ScheduledExecutor `prop:"scheduledExecutorService"`
	Scheduler                string            `prop:"scheduler"`
	SchedulerProperties      map[string]any    `prop:"schedulerProperties"`
	StartScheduler           bool              `prop:"startScheduler"`
	TimeUnit                 TimeUnit          `prop:"timeUnit"`
	UseFixedDelay            bool              `prop:"useFixedDelay"`
}

// PollInterval is Delay converted to a duration.
func (o SchedulerOptions) PollInterval() time.Duration {
	return time.Duration(o.Delay) * o.TimeUnit.Duration()
}

// FirstPoll is InitialDelay converted to a duration.
func (o SchedulerOptions) FirstPoll() time.Duration {
	return time.Duration(o.InitialDelay) * o.TimeUnit.Duration()
}

// DriveEndpoint configures a google-drive://<api>/<method> endpoint.
type DriveEndpoint struct {
	DriveConfiguration
	SchedulerOptions

	BridgeErrorHandler       bool               `prop:"bridgeErrorHandler"`
	SendEmptyMessageWhenIdle bool               `prop:"sendEmptyMessageWhenIdle"`
	ExceptionHandler         ExceptionHandler   `prop:"exceptionHandler"`
	ExchangePattern          ExchangePattern    `prop:"exchangePattern"`
	PollStrategy             PollStrategy       `prop:"pollStrategy"`
	LazyStartProducer        bool               `prop:"lazyStartProducer"`
	BasicPropertyBinding     bool               `prop:"basicPropertyBinding"`
	Synchronous              bool               `prop:"synchronous"`
	ClientFactory            DriveClientFactory `prop:"clientFactory"`
	InBody                   string             `prop:"inBody"`
}

func newDriveDefaults() *DriveEndpoint {
	return &DriveEndpoint{
		ExchangePattern: InOnly,
		SchedulerOptions: SchedulerOptions{
			Delay:           500,
			InitialDelay:    1000,
			RunLoggingLevel: LevelTrace,
			Scheduler:       "none",
			StartScheduler:  true,
			TimeUnit:        Milliseconds,
			UseFixedDelay:   true,
		},
	}
}

// NewDriveEndpoint creates an endpoint with default settings for the given "<api>/<method>" path.
func NewDriveEndpoint(path string) (*DriveEndpoint, error) {
	api, method, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if !slices.Contains(DriveAPIs, api) {
		return nil, fmt.Errorf("%w: unknown drive api %q", ErrInvalidPath, api)
	}
	if strings.Contains(method, "/") {
		return nil, fmt.Errorf("%w: drive method %q must be a single segment", ErrInvalidPath, method)
	}

	e := newDriveDefaults()
	e.APIName = api
	e.MethodName = method
	return e, nil
}

func (e *DriveEndpoint) Scheme() string {
	return DriveScheme
}

func (e *DriveEndpoint) Path() string {
	if e.MethodName == "" {
		return e.APIName
	}
	return e.APIName + "/" + e.MethodName
}

func (e *DriveEndpoint) Targets() []any {
	return []any{e}
}
