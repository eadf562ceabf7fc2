package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagsFacets(t *testing.T) {
	t.Parallel()
	flags := FlagPermanent | FlagNoDAD
	assert.True(t, flags.Permanent())
	assert.True(t, flags.NoDAD())
	assert.False(t, flags.Deprecated())
	assert.False(t, flags.Temporary())
	assert.False(t, flags.HomeAddress())
	assert.False(t, flags.Optimistic())
	assert.False(t, flags.Tentative())
	assert.False(t, flags.DADFailed())
	assert.Equal(t, "nodad|permanent", flags.String())
}

func TestFlagsLinuxValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Flags(0x80), FlagPermanent)
	assert.Equal(t, Flags(0x40), FlagTentative)
	assert.Equal(t, Flags(0x08), FlagDADFailed)
	assert.Equal(t, "none", Flags(0).String())
}
