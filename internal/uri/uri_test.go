package uri

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantScheme string
		wantPath   string
		wantParams map[string]any
	}{
		{
			name:       "HierarchicalWithQuery",
			raw:        "google-drive://drive-files/list?delay=500&greedy=true",
			wantScheme: "google-drive",
			wantPath:   "drive-files/list",
			wantParams: map[string]any{"delay": "500", "greedy": "true"},
		},
		{
			name:       "Opaque",
			raw:        "docker:attachcontainer?containerId=9c09acd48a25",
			wantScheme: "docker",
			wantPath:   "attachcontainer",
			wantParams: map[string]any{"containerId": "9c09acd48a25"},
		},
		{
			name:       "DecodesValues",
			raw:        "docker://info?host=my%20host&email=a%2Bb%40example.com",
			wantScheme: "docker",
			wantPath:   "info",
			wantParams: map[string]any{"host": "my host", "email": "a+b@example.com"},
		},
		{
			name:       "RawValueKeptVerbatim",
			raw:        "google-drive://drive-files/list?clientSecret=RAW(a+b%2F&c)&delay=5",
			wantScheme: "google-drive",
			wantPath:   "drive-files/list",
			wantParams: map[string]any{"clientSecret": "a+b%2F&c", "delay": "5"},
		},
		{
			name:       "RepeatedKeys",
			raw:        "google-drive://drive-files/list?scopes=drive&scopes=drive.file&scopes=drive.appdata",
			wantScheme: "google-drive",
			wantPath:   "drive-files/list",
			wantParams: map[string]any{"scopes": []string{"drive", "drive.file", "drive.appdata"}},
		},
		{
			name:       "NoQuery",
			raw:        "  DOCKER://version/  ",
			wantScheme: "docker",
			wantPath:   "version",
			wantParams: map[string]any{},
		},
		{
			name:       "EmptyValueAndStrayAmpersand",
			raw:        "docker://info?&host=&",
			wantScheme: "docker",
			wantPath:   "info",
			wantParams: map[string]any{"host": ""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantScheme, got.Scheme)
			assert.Equal(t, tc.wantPath, got.Path)
			if diff := cmp.Diff(tc.wantParams, got.Params()); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsInvalidURIs(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"no-scheme-here",
		"://drive",
		"1docker://info",
		"docker://info?=value",
		"docker://info?host=%zz",
		"docker://%zz",
	} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidURI, "uri %q", raw)
	}
}

func TestParamsReturnsCopy(t *testing.T) {
	t.Parallel()

	u, err := Parse("google-drive://drive-files/list?scopes=a&scopes=b")
	require.NoError(t, err)

	params := u.Params()
	params["scopes"].([]string)[0] = "changed"
	params["extra"] = "x"

	assert.Equal(t, map[string]any{"scopes": []string{"a", "b"}}, u.Params())
}

func TestStringIsCanonical(t *testing.T) {
	t.Parallel()

	u, err := Parse("docker:info?port=2375&host=my%20host&port=2376")
	require.NoError(t, err)
	assert.Equal(t, "docker://info?host=my+host&port=2375&port=2376", u.String())

	again, err := Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u.Params(), again.Params())
}
