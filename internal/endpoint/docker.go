package endpoint

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/units"

	"github.com/eugenenazirov/propconf/internal/configurer"
)

// DockerScheme is the URI scheme of container engine endpoints.
const DockerScheme = "docker"

// Header prefixes recognized by ApplyHeaders; the remainder names a property.
const (
	dockerHeaderPrefix      = "Docker"
	camelDockerHeaderPrefix = "CamelDocker"
)

// DockerConfiguration describes how to reach the container engine.
type DockerConfiguration struct {
	Operation DockerOperation `prop:"-" yaml:"-"`

	Host                   string        `prop:"host"`
	Port                   int           `prop:"port"`
	Username               string        `prop:"username"`
	Password               string        `prop:"password"`
	Email                  string        `prop:"email"`
	ServerAddress          string        `prop:"serverAddress"`
	RequestTimeout         time.Duration `prop:"requestTimeout"`
	Secure                 bool          `prop:"secure"`
	TLSVerify              bool          `prop:"tlsVerify"`
	CertPath               string        `prop:"certPath"`
	MaxTotalConnections    int           `prop:"maxTotalConnections"`
	MaxPerRouteConnections int           `prop:"maxPerRouteConnections"`
	LoggingFilter          bool          `prop:"loggingFilter"`
	FollowRedirectFilter   bool          `prop:"followRedirectFilter"`
	Socket                 bool          `prop:"socket"`
}

// ContainerOptions are the per-command options of container operations.
type ContainerOptions struct {
	ContainerID  string           `prop:"containerId"`
	FollowStream bool             `prop:"followStream"`
	Logs         bool             `prop:"logs"`
	StdOut       bool             `prop:"stdOut"`
	StdErr       bool             `prop:"stdErr"`
	Timestamps   bool             `prop:"timestamps"`
	BufferSize   units.Base2Bytes `prop:"bufferSize"`
}

// DockerEndpoint configures a docker://<operation> endpoint. Properties are offered to
// the engine configuration first and to the container options second.
type DockerEndpoint struct {
	Configuration DockerConfiguration
	Container     ContainerOptions
}

func newDockerDefaults() *DockerEndpoint {
	return &DockerEndpoint{
		Configuration: DockerConfiguration{
			Host:                   "localhost",
			Port:                   2375,
			ServerAddress:          "https://index.docker.io/v1/",
			MaxTotalConnections:    100,
			MaxPerRouteConnections: 100,
			Socket:                 true,
		},
		Container: ContainerOptions{
			BufferSize: 128 * units.KiB,
		},
	}
}

// NewDockerEndpoint creates an endpoint with default settings for the operation named by path.
func NewDockerEndpoint(path string) (*DockerEndpoint, error) {
	op, err := ParseDockerOperation(strings.ToLower(strings.Trim(path, "/")))
	if err != nil {
		return nil, err
	}
	e := newDockerDefaults()
	e.Configuration.Operation = op
	return e, nil
}

func (e *DockerEndpoint) Scheme() string {
	return DockerScheme
}

func (e *DockerEndpoint) Path() string {
	return string(e.Configuration.Operation)
}

func (e *DockerEndpoint) Targets() []any {
	return []any{&e.Configuration, &e.Container}
}

var dockerConverters = sync.OnceValue(func() *configurer.Converters {
	c := configurer.NewConverters()
	RegisterConverters(c)
	return c
})

// ApplyHeaders overrides endpoint settings from message headers. Header names carry a
// "Docker" or "CamelDocker" prefix followed by the property name in any case, e.g.
// "CamelDockerContainerId". Other headers, and prefixed headers naming no property,
// are ignored. A "CamelDocker" header wins over a "Docker" header naming the same
// property, and among headers differing only in case the last in sorted order wins.
func (e *DockerEndpoint) ApplyHeaders(headers map[string]any) error {
	chain, err := chainFor(e, configurer.WithConverters(dockerConverters()))
	if err != nil {
		return err
	}

	names := slices.Sorted(maps.Keys(headers))
	props := make(map[string]any, len(headers))
	for _, prefix := range []string{dockerHeaderPrefix, camelDockerHeaderPrefix} {
		for _, name := range names {
			property, ok := strings.CutPrefix(name, prefix)
			if !ok || (prefix == dockerHeaderPrefix && strings.HasPrefix(name, camelDockerHeaderPrefix)) {
				continue
			}
			props[strings.ToLower(property)] = headers[name]
		}
	}

	_, err = configurer.Apply(chain, props, true)
	return err
}
