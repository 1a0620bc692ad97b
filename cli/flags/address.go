package flags

import (
	"flag"
	"fmt"
	"strings"

	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
)

// Address is a wrapper for an AccountID with flag.Value methods.
type Address struct {
	IsSet bool
	Value util.AccountID
}

// AddressFlag is a flag with type AccountID.
type AddressFlag struct {
	Name     string
	Usage    string
	Value    Address
	Required bool
}

var (
	_ flag.Value       = (*Address)(nil)
	_ cli.Flag         = AddressFlag{}
	_ cli.RequiredFlag = AddressFlag{}
)

// String implements the fmt.Stringer interface.
func (a Address) String() string {
	return address.EncodeDefault(a.Value)
}

// Set implements the flag.Value interface.
func (a *Address) Set(s string) error {
	addr, err := ParseAddress(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.IsSet = true
	a.Value = addr
	return nil
}

// AccountID casts an address to AccountID.
func (a *Address) AccountID() (u util.AccountID) {
	if !a.IsSet {
		// It is a programmer error to call this method without
		// checking if the value was provided.
		panic("address was not set")
	}
	return a.Value
}

// IsSet checks if flag was set to a non-default value.
func (f AddressFlag) IsSet() bool {
	return f.Value.IsSet
}

// String returns a readable representation of this value
// (for usage defaults).
func (f AddressFlag) String() string {
	var names []string
	eachName(f.Name, func(name string) {
		names = append(names, getNameHelp(name))
	})

	return strings.Join(names, ", ") + "\t" + f.Usage
}

func getNameHelp(name string) string {
	if len(name) == 1 {
		return fmt.Sprintf("-%s value", name)
	}
	return fmt.Sprintf("--%s value", name)
}

// IsRequired returns whether the flag is required.
func (f AddressFlag) IsRequired() bool {
	return f.Required
}

// GetName returns the name of the flag.
func (f AddressFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f AddressFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// AddressFromContext returns the address flag value with the given name,
// it's unset if the flag wasn't given.
func AddressFromContext(ctx *cli.Context, name string) Address {
	a, ok := ctx.Generic(name).(*Address)
	if !ok || a == nil {
		return Address{}
	}
	return *a
}

// ParseAddress parses an AccountID from either a 0x-prefixed hex public key
// or an SS58 address of any network.
func ParseAddress(s string) (util.AccountID, error) {
	return address.StringToAccountID(s)
}
