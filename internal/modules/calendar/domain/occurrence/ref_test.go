package occurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefRoundTrip(t *testing.T) {
	for _, s := range []string{"event:e1", "series:s1", "series:s1:2024-01-08"} {
		r, err := ParseRef(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, r.String())
	}
}

func TestParseRefRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "event:", "task:1", "series:s1:2024-13-01", "event:a:b"} {
		_, err := ParseRef(s)
		assert.ErrorIs(t, err, ErrInvalidRef, s)
	}
}

func TestRefPrefixes(t *testing.T) {
	occ := OccurrenceRef("s1", date(2024, 1, 8))
	assert.Equal(t, "series:s1:2024-01-08|", occ.Prefix())
	assert.Equal(t, "series:s1:", SeriesRef("s1").Prefix())
	assert.Equal(t, "event:e1|", EventRef("e1").Prefix())
	assert.Equal(t, "series:s1:%", SeriesRef("s1").Pattern())

	assert.True(t, SeriesRef("s1").Covers(occ))
	assert.False(t, SeriesRef("s2").Covers(occ))
	assert.False(t, EventRef("e1").Covers(occ))
}
