package letters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, err := parse(strings.NewReader("# spanish extras\na\n\n ll \nñ\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "LL", "Ñ"}, got)
}

func TestNormalizeWithEmbeddedDefault(t *testing.T) {
	require.NoError(t, Init(""))
	assert.Len(t, All(), 26)

	l, ok := Normalize(" q ")
	assert.True(t, ok)
	assert.Equal(t, "Q", l)

	_, ok = Normalize("7")
	assert.False(t, ok)
	_, ok = Normalize("Enter")
	assert.False(t, ok)
	_, ok = Normalize("")
	assert.False(t, ok)
}
