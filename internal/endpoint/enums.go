package endpoint

import (
	"fmt"
	"slices"
	"time"
)

// ExchangePattern selects whether a consumer expects a reply.
type ExchangePattern string

const (
	InOnly        ExchangePattern = "InOnly"
	InOut         ExchangePattern = "InOut"
	InOptionalOut ExchangePattern = "InOptionalOut"
)

func (ExchangePattern) Enumerators() []string {
	return []string{string(InOnly), string(InOut), string(InOptionalOut)}
}

// LoggingLevel is the level used when logging scheduler runs.
type LoggingLevel string

const (
	LevelError LoggingLevel = "ERROR"
	LevelWarn  LoggingLevel = "WARN"
	LevelInfo  LoggingLevel = "INFO"
	LevelDebug LoggingLevel = "DEBUG"
	LevelTrace LoggingLevel = "TRACE"
	LevelOff   LoggingLevel = "OFF"
)

func (LoggingLevel) Enumerators() []string {
	return []string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE", "OFF"}
}

// TimeUnit qualifies the scheduler's delay and initialDelay values.
type TimeUnit string

const (
	Nanoseconds  TimeUnit = "NANOSECONDS"
	Microseconds TimeUnit = "MICROSECONDS"
	Milliseconds TimeUnit = "MILLISECONDS"
	Seconds      TimeUnit = "SECONDS"
	Minutes      TimeUnit = "MINUTES"
	Hours        TimeUnit = "HOURS"
	Days         TimeUnit = "DAYS"
)

var timeUnits = map[TimeUnit]time.Duration{
	Nanoseconds:  time.Nanosecond,
	Microseconds: time.Microsecond,
	Milliseconds: time.Millisecond,
	Seconds:      time.Second,
	Minutes:      time.Minute,
	Hours:        time.Hour,
	Days:         24 * time.Hour,
}

func (TimeUnit) Enumerators() []string {
	return []string{"NANOSECONDS", "MICROSECONDS", "MILLISECONDS", "SECONDS", "MINUTES", "HOURS", "DAYS"}
}

// Duration returns the length of one unit. Unknown units count as milliseconds.
func (u TimeUnit) Duration() time.Duration {
	if d, ok := timeUnits[u]; ok {
		return d
	}
	return time.Millisecond
}

// DockerOperation is the container engine command a docker endpoint issues.
type DockerOperation string

const (
	OpEvents           DockerOperation = "events"
	OpStats            DockerOperation = "stats"
	OpAuth             DockerOperation = "auth"
	OpInfo             DockerOperation = "info"
	OpPing             DockerOperation = "ping"
	OpVersion          DockerOperation = "version"
	OpBuildImage       DockerOperation = "imagebuild"
	OpCreateImage      DockerOperation = "imagecreate"
	OpInspectImage     DockerOperation = "imageinspect"
	OpListImages       DockerOperation = "imagelist"
	OpPullImage        DockerOperation = "imagepull"
	OpPushImage        DockerOperation = "imagepush"
	OpRemoveImage      DockerOperation = "imageremove"
	OpSearchImages     DockerOperation = "imagesearch"
	OpTagImage         DockerOperation = "imagetag"
	OpAttachContainer  DockerOperation = "containerattach"
	OpCommitContainer  DockerOperation = "containercommit"
	OpCopyFile         DockerOperation = "containercopyfile"
	OpCreateContainer  DockerOperation = "containercreate"
	OpDiffContainer    DockerOperation = "containerdiff"
	OpInspectContainer DockerOperation = "containerinspect"
	OpKillContainer    DockerOperation = "containerkill"
	OpListContainers   DockerOperation = "containerlist"
	OpLogContainer     DockerOperation = "containerlog"
	OpPauseContainer   DockerOperation = "containerpause"
	OpRestartContainer DockerOperation = "containerrestart"
	OpRemoveContainer  DockerOperation = "containerremove"
	OpStartContainer   DockerOperation = "containerstart"
	OpStopContainer    DockerOperation = "containerstop"
	OpTopContainer     DockerOperation = "containertop"
	OpUnpauseContainer DockerOperation = "containerunpause"
	OpWaitContainer    DockerOperation = "containerwait"
	OpExecCreate       DockerOperation = "execcreate"
	OpExecStart        DockerOperation = "execstart"
)

var dockerOperations = []DockerOperation{
	OpEvents, OpStats, OpAuth, OpInfo, OpPing, OpVersion,
	OpBuildImage, OpCreateImage, OpInspectImage, OpListImages, OpPullImage,
	OpPushImage, OpRemoveImage, OpSearchImages, OpTagImage,
	OpAttachContainer, OpCommitContainer, OpCopyFile, OpCreateContainer,
	OpDiffContainer, OpInspectContainer, OpKillContainer, OpListContainers,
	OpLogContainer, OpPauseContainer, OpRestartContainer, OpRemoveContainer,
	OpStartContainer, OpStopContainer, OpTopContainer, OpUnpauseContainer,
	OpWaitContainer, OpExecCreate, OpExecStart,
}

func (DockerOperation) Enumerators() []string {
	names := make([]string, len(dockerOperations))
	for i, op := range dockerOperations {
		names[i] = string(op)
	}
	return names
}

// ParseDockerOperation validates an operation name taken from an endpoint path.
func ParseDockerOperation(name string) (DockerOperation, error) {
	op := DockerOperation(name)
	if !slices.Contains(dockerOperations, op) {
		return "", fmt.Errorf("%w: unknown docker operation %q", ErrInvalidPath, name)
	}
	return op, nil
}
