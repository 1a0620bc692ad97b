package flags

import (
	"errors"
	"flag"
	"fmt"
	"math/big"
	"strings"

	"github.com/urfave/cli"
)

// AvailDecimals is the number of decimal places of the AVAIL token.
const AvailDecimals = 18

// Amount is a wrapper for a token amount in the smallest units with
// flag.Value methods. It's set from decimal strings like "1.5" that are
// scaled by AvailDecimals.
type Amount struct {
	IsSet bool
	Value *big.Int
}

// AmountFlag is a flag with type Amount.
type AmountFlag struct {
	Name     string
	Usage    string
	Value    Amount
	Required bool
}

var (
	_ flag.Value       = (*Amount)(nil)
	_ cli.Flag         = AmountFlag{}
	_ cli.RequiredFlag = AmountFlag{}
)

// IsRequired returns whether the flag is required.
func (f AmountFlag) IsRequired() bool {
	return f.Required
}

// String implements the fmt.Stringer interface.
func (a Amount) String() string {
	if a.Value == nil {
		return "0"
	}
	return FormatAmount(a.Value, AvailDecimals)
}

// Set implements the flag.Value interface.
func (a *Amount) Set(s string) error {
	v, err := ParseAmount(s, AvailDecimals)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.IsSet = true
	a.Value = v
	return nil
}

// String returns a readable representation of this value
// (for usage defaults).
func (f AmountFlag) String() string {
	var names []string
	eachName(f.Name, func(name string) {
		names = append(names, getNameHelp(name))
	})

	return strings.Join(names, ", ") + "\t" + f.Usage
}

// GetName returns the name of the flag.
func (f AmountFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f AmountFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// AmountFromContext returns a parsed amount provided flag name, nil is
// returned for unset flags.
func AmountFromContext(ctx *cli.Context, name string) *big.Int {
	a, ok := ctx.Generic(name).(*Amount)
	if !ok || a == nil || !a.IsSet {
		return nil
	}
	return a.Value
}

// ParseAmount parses a non-negative decimal string with at most decimals
// fractional digits into an integer scaled by 10^decimals.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty amount")
	}
	ip, fp, hasDot := strings.Cut(s, ".")
	if hasDot && fp == "" || ip == "" && fp == "" {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if len(fp) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	digits := ip + fp + strings.Repeat("0", decimals-len(fp))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
	}
	v, _ := new(big.Int).SetString(digits, 10)
	return v, nil
}

// FormatAmount formats integer amount scaled by 10^decimals as a decimal
// string without trailing zeroes.
func FormatAmount(v *big.Int, decimals int) string {
	neg := v.Sign() < 0
	s := new(big.Int).Abs(v).String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	ip, fp := s[:len(s)-decimals], strings.TrimRight(s[len(s)-decimals:], "0")
	res := ip
	if fp != "" {
		res += "." + fp
	}
	if neg {
		res = "-" + res
	}
	return res
}
