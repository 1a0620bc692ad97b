package netmode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, n := range []Network{MainNet, TuringNet, LocalNet} {
		p, err := Parse(n.String())
		require.NoError(t, err)
		require.Equal(t, n, p)
	}
	_, err := Parse("privnet")
	require.Error(t, err)
}
