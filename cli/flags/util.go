package flags

import (
	"slices"
	"strings"

	"github.com/urfave/cli"
)

func eachName(longName string, fn func(string)) {
	parts := strings.Split(longName, ",")
	for _, name := range parts {
		name = strings.Trim(name, " ")
		fn(name)
	}
}

// MarkRequired returns a copy of flagSet with the flags of the given names
// (as they're specified in the flag, including aliases) made required.
func MarkRequired(flagSet []cli.Flag, names ...string) []cli.Flag {
	res := make([]cli.Flag, len(flagSet))
	copy(res, flagSet)
	for i, fl := range res {
		if !slices.Contains(names, fl.GetName()) {
			continue
		}
		switch f := fl.(type) {
		case cli.StringFlag:
			f.Required = true
			res[i] = f
		case cli.UintFlag:
			f.Required = true
			res[i] = f
		case AddressFlag:
			f.Required = true
			res[i] = f
		case AmountFlag:
			f.Required = true
			res[i] = f
		}
	}
	return res
}
