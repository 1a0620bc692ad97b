package config

import (
	"errors"
	"net"
)

// BasicService is used as a simple base for auxiliary services like
// Prometheus monitoring.
type BasicService struct {
	Enabled bool `yaml:"Enabled"`
	// Addresses holds the list of bind addresses in the form of "address:port".
	Addresses []string `yaml:"Addresses"`
}

// GetAddresses returns the set of unique (in terms of raw strings) host:port
// pairs for the given basic service.
func (s BasicService) GetAddresses() []string {
	var (
		res  = make([]string, 0, len(s.Addresses))
		seen = make(map[string]bool, len(s.Addresses))
	)
	for _, a := range s.Addresses {
		if !seen[a] {
			seen[a] = true
			res = append(res, a)
		}
	}
	return res
}

// Validate checks the addresses of the enabled service.
func (s BasicService) Validate() error {
	if !s.Enabled {
		return nil
	}
	if len(s.Addresses) == 0 {
		return errors.New("no addresses specified")
	}
	for _, a := range s.Addresses {
		if _, _, err := net.SplitHostPort(a); err != nil {
			return err
		}
	}
	return nil
}
