package endpoint

import (
	"testing"
	"time"

	"github.com/alecthomas/units"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/propconf/internal/configurer"
)

func TestAttachContainerHeaders(t *testing.T) {
	t.Parallel()

	ep, err := NewDockerEndpoint("containerattach")
	require.NoError(t, err)

	headers := map[string]any{
		"CamelDockerHost":         "localhost",
		"CamelDockerPort":         5000,
		"CamelDockerContainerId":  "9c09acd48a25",
		"CamelDockerFollowStream": false,
		"CamelDockerStdOut":       true,
		"CamelDockerStdErr":       true,
		"CamelDockerTimestamps":   true,
		"CamelDockerLogs":         true,
		"CamelFileName":           "ignored.txt",
		"DockerBufferSize":        "64KiB",
		"DockerNoSuchOption":      "ignored",
	}
	require.NoError(t, ep.ApplyHeaders(headers))

	want := ContainerOptions{
		ContainerID:  "9c09acd48a25",
		FollowStream: false,
		Logs:         true,
		StdOut:       true,
		StdErr:       true,
		Timestamps:   true,
		BufferSize:   64 * units.KiB,
	}
	if diff := cmp.Diff(want, ep.Container); diff != "" {
		t.Fatalf("container options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5000, ep.Configuration.Port)
	assert.Equal(t, OpAttachContainer, ep.Configuration.Operation)
}

func TestApplyHeadersPrefersCamelDockerPrefix(t *testing.T) {
	t.Parallel()

	for range 50 {
		ep, err := NewDockerEndpoint("containerlog")
		require.NoError(t, err)

		require.NoError(t, ep.ApplyHeaders(map[string]any{
			"DockerHost":             "docker.internal",
			"CamelDockerHost":        "engine.internal",
			"DockerPort":             "4243",
			"DockerContainerId":      "aaaa",
			"CamelDockercontainerid": "bbbb",
		}))
		require.Equal(t, "engine.internal", ep.Configuration.Host)
		require.Equal(t, 4243, ep.Configuration.Port)
		require.Equal(t, "bbbb", ep.Container.ContainerID)
	}
}

func TestApplyHeadersReportsCoercionFailures(t *testing.T) {
	t.Parallel()

	ep, err := NewDockerEndpoint("containerlog")
	require.NoError(t, err)

	err = ep.ApplyHeaders(map[string]any{
		"CamelDockerStdOut":     "sometimes",
		"CamelDockerBufferSize": "lots",
		"CamelDockerLogs":       "true",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, configurer.ErrTypeCoercion)
	assert.True(t, ep.Container.Logs)
	assert.False(t, ep.Container.StdOut)
}

func TestNewDockerEndpointDefaults(t *testing.T) {
	t.Parallel()

	ep, err := NewDockerEndpoint("/Info/")
	require.NoError(t, err)

	assert.Equal(t, DockerScheme, ep.Scheme())
	assert.Equal(t, "info", ep.Path())
	assert.Equal(t, "localhost", ep.Configuration.Host)
	assert.Equal(t, 2375, ep.Configuration.Port)
	assert.True(t, ep.Configuration.Socket)
	assert.Equal(t, 128*units.KiB, ep.Container.BufferSize)
	assert.Zero(t, ep.Configuration.RequestTimeout)

	_, err = NewDockerEndpoint("launchmissiles")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParseByteSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want units.Base2Bytes
	}{
		{"4096", 4096},
		{" 1KB ", units.KiB},
		{"2MiB", 2 * units.MiB},
		{1024, units.KiB},
		{int64(10), 10},
		{2048.0, 2 * units.KiB},
	}
	for _, tc := range tests {
		got, err := parseByteSize(tc.in)
		require.NoError(t, err, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}

	for _, bad := range []any{"lots", -1, 1.5, "-2KiB", true} {
		_, err := parseByteSize(bad)
		assert.Error(t, err, "input %v", bad)
	}
}

func TestTimeUnitDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Millisecond, Milliseconds.Duration())
	assert.Equal(t, 24*time.Hour, Days.Duration())
	assert.Equal(t, time.Millisecond, TimeUnit("FORTNIGHTS").Duration())
	assert.Len(t, DockerOperation("").Enumerators(), len(dockerOperations))
}
