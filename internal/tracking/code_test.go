package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode_Format(t *testing.T) {
	code, err := NewCode()
	require.NoError(t, err)
	assert.Len(t, code, codeBytes*2)
	assert.Regexp(t, `^[0-9a-f]+$`, code)
}

func TestNewCode_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		require.False(t, seen[code], "duplicate code after %d draws", i)
		seen[code] = true
	}
}
