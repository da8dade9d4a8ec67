package endpoint

import (
	"testing"
	"time"

	"github.com/alecthomas/units"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/propconf/internal/configurer"
	"github.com/eugenenazirov/propconf/internal/uri"
)

type recordingHandler struct {
	messages []string
}

func (h *recordingHandler) HandleException(message string, _ error) {
	h.messages = append(h.messages, message)
}

type staticLookup map[string]any

func (l staticLookup) Lookup(name string) (any, bool) {
	v, ok := l[name]
	return v, ok
}

func newTestCatalog(opts ...CatalogOption) (*Catalog, *recordingHandler) {
	handler := &recordingHandler{}
	converters := configurer.NewConverters()
	RegisterConverters(converters)

	base := []CatalogOption{
		WithConverters(converters),
		WithLookup(staticLookup{"logExceptions": handler}),
	}
	return NewCatalog(append(base, opts...)...), handler
}

func TestBindDriveEndpoint(t *testing.T) {
	t.Parallel()

	catalog, handler := newTestCatalog()
	ep, err := catalog.Bind(
		"google-drive://drive-files/list?delay=250&greedy=true&timeUnit=SECONDS&scopes=drive&scopes=drive.file",
		map[string]any{
			"clientId":         "abc",
			"exceptionHandler": "#logExceptions",
			"delay":            int64(750),
		},
		false,
	)
	require.NoError(t, err)

	drive, ok := ep.(*DriveEndpoint)
	require.True(t, ok)
	assert.Equal(t, "drive-files/list", drive.Path())
	assert.Equal(t, "abc", drive.ClientID)
	assert.Equal(t, int64(750), drive.Delay, "explicit properties override uri parameters")
	assert.True(t, drive.Greedy)
	assert.Equal(t, Seconds, drive.TimeUnit)
	assert.Equal(t, 750*time.Second, drive.PollInterval())
	assert.Equal(t, 1000*time.Second, drive.FirstPoll())
	assert.Equal(t, []string{"drive", "drive.file"}, drive.Scopes)
	assert.Same(t, handler, drive.ExceptionHandler)
	assert.Equal(t, InOnly, drive.ExchangePattern)
}

func TestBindIgnoreCase(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog()
	ep, err := catalog.Bind("google-drive://drive-about/get?CLIENTID=abc&Delay=100", map[string]any{"DELAY": "200"}, true)
	require.NoError(t, err)

	drive := ep.(*DriveEndpoint)
	assert.Equal(t, "abc", drive.ClientID)
	assert.Equal(t, int64(200), drive.Delay)

	_, err = catalog.Bind("google-drive://drive-about/get?CLIENTID=abc", nil, false)
	assert.ErrorIs(t, err, ErrUnknownParameters)
}

func TestBindDockerChainsConfigurationAndContainerOptions(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog()
	ep, err := catalog.Bind("docker:containerattach?host=docker.internal&containerId=9c09acd48a25&bufferSize=1MiB&requestTimeout=30s", nil, false)
	require.NoError(t, err)

	docker := ep.(*DockerEndpoint)
	assert.Equal(t, "docker.internal", docker.Configuration.Host)
	assert.Equal(t, 30*time.Second, docker.Configuration.RequestTimeout)
	assert.Equal(t, "9c09acd48a25", docker.Container.ContainerID)
	assert.Equal(t, units.MiB, docker.Container.BufferSize)
}

func TestBindErrors(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog()

	_, err := catalog.Bind("ftp://example.com/files", nil, false)
	assert.ErrorIs(t, err, ErrUnknownScheme)

	_, err = catalog.Bind("not a uri", nil, false)
	assert.ErrorIs(t, err, uri.ErrInvalidURI)

	_, err = catalog.Bind("google-drive://drive-bogus/list", nil, false)
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = catalog.Bind("google-drive://drive-files/list?delay=soon&greedy=maybe", nil, false)
	assert.ErrorIs(t, err, configurer.ErrTypeCoercion)

	_, err = catalog.Bind("google-drive://drive-files/list?exceptionHandler=%23missing", nil, false)
	assert.ErrorIs(t, err, configurer.ErrTypeCoercion)

	_, err = catalog.Bind("docker://info?colour=blue&size=xl", nil, false)
	var unknown *UnknownParametersError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"colour", "size"}, unknown.Names)
	assert.Equal(t, DockerScheme, unknown.Scheme)
}

func TestBindLenientIgnoresUnknownParameters(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog(WithLenient(true))
	ep, err := catalog.Bind("docker://info?colour=blue&port=4243", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 4243, ep.(*DockerEndpoint).Configuration.Port)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog()

	drive, err := catalog.Describe(DriveScheme)
	require.NoError(t, err)
	require.Len(t, drive, 30)

	byName := make(map[string]PropertyInfo, len(drive))
	for _, info := range drive {
		byName[info.Name] = info
	}

	want := PropertyInfo{
		Name:        "timeUnit",
		Group:       "DriveEndpoint",
		Type:        "endpoint.TimeUnit",
		Kind:        "enum",
		Enumerators: []string{"NANOSECONDS", "MICROSECONDS", "MILLISECONDS", "SECONDS", "MINUTES", "HOURS", "DAYS"},
		Default:     Milliseconds,
	}
	if diff := cmp.Diff(want, byName["timeUnit"]); diff != "" {
		t.Fatalf("timeUnit mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(500), byName["delay"].Default)
	assert.Nil(t, byName["greedy"].Default)
	assert.Equal(t, "object", byName["exceptionHandler"].Kind)

	docker, err := catalog.Describe(DockerScheme)
	require.NoError(t, err)
	assert.Equal(t, "DockerConfiguration", docker[0].Group)
	assert.Equal(t, "ContainerOptions", docker[len(docker)-1].Group)

	_, err = catalog.Describe("ftp")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestSnapshotCanonicalAndSet(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog()
	ep, err := catalog.Bind("docker://containerlog?containerId=abc", nil, false)
	require.NoError(t, err)

	name, ok := catalog.Canonical(ep, "CONTAINERID", true)
	require.True(t, ok)
	assert.Equal(t, "containerId", name)

	_, ok = catalog.Canonical(ep, "CONTAINERID", false)
	assert.False(t, ok)

	ok, err = catalog.Set(ep, "stdErr", "true", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = catalog.Set(ep, "unknown", "x", false)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = catalog.Set(ep, "port", "http", false)
	assert.ErrorIs(t, err, configurer.ErrTypeCoercion)

	snapshot, err := catalog.Snapshot(ep)
	require.NoError(t, err)
	assert.Equal(t, "abc", snapshot["containerId"])
	assert.Equal(t, true, snapshot["stdErr"])
	assert.Equal(t, 2375, snapshot["port"])
	assert.Len(t, snapshot, 22)
}

func TestRegisterKind(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog()
	assert.ErrorIs(t, catalog.Register(builtinKinds()[0]), ErrKindExists)
	assert.Error(t, catalog.Register(Kind{Scheme: "incomplete"}))

	schemes := make([]string, 0, 2)
	for _, kind := range catalog.Kinds() {
		schemes = append(schemes, kind.Scheme)
	}
	assert.Equal(t, []string{DockerScheme, DriveScheme}, schemes)
}
