package version

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVersionCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    string
		wantErr error
	}{
		{name: "padded", give: "000001002", want: "0.1.2"},
		{name: "release", give: "001002000", want: "1.2.0"},
		{name: "unpadded", give: "1002003", want: "1.2.3"},
		{name: "short", give: "7", want: "0.0.7"},
		{name: "max", give: "999999999", want: "999.999.999"},
		{name: "zero", give: "0", want: "0.0.0"},
		{name: "too long", give: "1000000000", wantErr: ErrInvalidCode},
		{name: "non digit", give: "12a", wantErr: ErrInvalidCode},
		{name: "negative", give: "-1", wantErr: ErrInvalidCode},
		{name: "empty", give: "", wantErr: ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeVersionCode(tt.give)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestVersionCode_RoundTrip(t *testing.T) {
	t.Parallel()

	codes := []string{"000000000", "999999999", "000001002", "001002003", "100000000", "000999000"}
	r := rand.New(rand.NewPCG(7, 11))
	for range 1000 {
		codes = append(codes, fmt.Sprintf("%09d", r.IntN(1_000_000_000)))
	}

	for _, code := range codes {
		v, err := DecodeVersionCode(code)
		require.NoError(t, err)

		encoded, err := EncodeVersionCode(v)
		require.NoError(t, err)
		assert.Equal(t, code, encoded)
	}
}

func TestVersion_BuildNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give    string
		want    int64
		wantErr error
	}{
		{give: "1.2.3", want: 1002003},
		{give: "1.2.0", want: 1002000},
		{give: "1.2", want: 1002000},
		{give: "0.0.1", want: 1},
		{give: "999.999.999", want: 999999999},
		{give: "1.2.3.0", want: 1002003},
		{give: "1.2.3.4", wantErr: ErrBuildNumberOverflow},
		{give: "1.1000.0", wantErr: ErrBuildNumberOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			got, err := MustParse(tt.give).BuildNumber()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Version{}.BuildNumber()
	require.ErrorIs(t, err, ErrBuildNumberOverflow)
}

func TestVersion_BuildNumber_Monotonic(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(3, 5))
	randomVersion := func() Version {
		v, err := New(uint64(r.IntN(1000)), uint64(r.IntN(1000)), uint64(r.IntN(1000)))
		require.NoError(t, err)

		return v
	}

	for range 1000 {
		a, b := randomVersion(), randomVersion()
		na, err := a.BuildNumber()
		require.NoError(t, err)
		nb, err := b.BuildNumber()
		require.NoError(t, err)

		switch a.Compare(b) {
		case -1:
			assert.Less(t, na, nb, "%s < %s", a, b)
		case 1:
			assert.Greater(t, na, nb, "%s > %s", a, b)
		default:
			assert.Equal(t, na, nb)
		}
	}
}

func TestBuildNumber_MatchesVersionCode(t *testing.T) {
	t.Parallel()

	v := MustParse("1.2.0")
	n, err := v.BuildNumber()
	require.NoError(t, err)

	code, err := EncodeVersionCode(v)
	require.NoError(t, err)
	assert.Equal(t, "001002000", code)
	assert.Equal(t, int64(1002000), n)

	decoded, err := DecodeVersionCode(fmt.Sprint(n))
	require.NoError(t, err)
	assert.True(t, decoded.Equal(v))
}
