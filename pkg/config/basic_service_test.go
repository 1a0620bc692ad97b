package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicService_GetAddresses(t *testing.T) {
	s := BasicService{Addresses: []string{"localhost:2112", ":2113", "localhost:2112"}}
	require.Equal(t, []string{"localhost:2112", ":2113"}, s.GetAddresses())
	require.Empty(t, BasicService{}.GetAddresses())
}

func TestBasicService_Validate(t *testing.T) {
	require.NoError(t, BasicService{}.Validate())
	require.NoError(t, BasicService{Addresses: []string{"bad"}}.Validate())
	require.Error(t, BasicService{Enabled: true}.Validate())
	require.Error(t, BasicService{Enabled: true, Addresses: []string{"bad"}}.Validate())
	require.NoError(t, BasicService{Enabled: true, Addresses: []string{":2112"}}.Validate())
}
