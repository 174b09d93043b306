package syncspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocationTable(t *testing.T) {
	cases := []struct {
		raw     string
		want    Location
		wantErr string
	}{
		{raw: "", wantErr: "Path must be specified"},
		{raw: "f", want: Location{Path: "f"}},
		{raw: "h:f", want: Location{Host: "h", Path: "f"}},
		{raw: ":f", wantErr: "Missing hostname"},
		{raw: "u@h:f", want: Location{User: "u", Host: "h", Path: "f"}},
		{raw: `C:\folder`, want: Location{Path: `C:\folder`}},
		{raw: "CC:folder", want: Location{Host: "CC", Path: "folder"}},
		{raw: `s:C:\folder`, want: Location{Host: "s", Path: `C:\folder`}},
	}

	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			got, err := ParseLocation(c.raw)
			if c.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseLocationMissingUsername(t *testing.T) {
	_, err := ParseLocation("@h:f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing username")
}

func TestLocationStringRoundTrip(t *testing.T) {
	for _, raw := range []string{"f", "h:f", "u@h:f"} {
		loc, err := ParseLocation(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, loc.String())
	}
}
