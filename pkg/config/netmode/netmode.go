/*
Package netmode contains Avail network identifiers.
*/
package netmode

import "fmt"

const (
	// MainNet is the Avail main network.
	MainNet Network = "mainnet"
	// TuringNet is the Turing test network.
	TuringNet Network = "turing"
	// LocalNet is a local development node (usually started with --dev).
	LocalNet Network = "local"
)

// Network identifies the network the client works with. It's also used as a
// part of per-network configuration file names.
type Network string

// String implements the fmt.Stringer interface.
func (n Network) String() string {
	return string(n)
}

// Parse returns the network with the given name.
func Parse(s string) (Network, error) {
	switch n := Network(s); n {
	case MainNet, TuringNet, LocalNet:
		return n, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}
