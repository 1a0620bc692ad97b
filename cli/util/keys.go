package util

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nspcc-dev/avail-go/cli/options"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
)

var errNoData = errors.New("data argument is required")

// ParseHasher returns the hasher with the given (case-insensitive) name.
func ParseHasher(s string) (hash.Hasher, error) {
	for h := hash.Blake2_128; h <= hash.Identity; h++ {
		if strings.EqualFold(h.String(), s) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown hasher %q", s)
}

// parseData decodes 0x-prefixed hex, other arguments are taken as is.
func parseData(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		return util.HexBytesDecodeString(s)
	}
	return []byte(s), nil
}

func handleHash(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError(errNoData, 1)
	}
	data, err := parseData(ctx.Args()[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid hex data: %w", err), 1)
	}
	if name := ctx.String("hasher"); name != "" {
		h, err := ParseHasher(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, util.HexBytes(h.Hash(data)))
		return nil
	}
	for h := hash.Blake2_128; h <= hash.Identity; h++ {
		fmt.Fprintf(ctx.App.Writer, "%s: %s\n", h, util.HexBytes(h.Hash(data)))
	}
	return nil
}

// StorageKey returns the storage key of the item of the pallet, keys are
// "<hasher>:<0x-hex>" pairs for map items.
func StorageKey(pallet, item string, keys ...string) ([]byte, error) {
	if pallet == "" || item == "" {
		return nil, errors.New("pallet and item are required")
	}
	res := append(hash.Twox128([]byte(pallet)), hash.Twox128([]byte(item))...)
	for _, k := range keys {
		name, value, ok := strings.Cut(k, ":")
		if !ok {
			return nil, fmt.Errorf("key %q has no hasher", k)
		}
		h, err := ParseHasher(name)
		if err != nil {
			return nil, err
		}
		data, err := util.HexBytesDecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		res = append(res, h.Hash(data)...)
	}
	return res, nil
}

func handleStorageKey(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		return cli.NewExitError("pallet and item are required", 1)
	}
	key, err := StorageKey(args[0], args[1], args[2:]...)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, util.HexBytes(key))
	return nil
}

func handleInspect(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	acc, err := options.GetSigner(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	DumpAccount(ctx.App.Writer, acc, uint16(ctx.Uint("prefix")))
	return nil
}

// DumpAccount prints the account ID and addresses of the account.
func DumpAccount(w io.Writer, acc *account.Account, prefix uint16) {
	fmt.Fprintf(w, "Account ID: %s\n", acc.AccountID())
	fmt.Fprintf(w, "Address: %s\n", acc.Address(prefix))
	if prefix != address.DefaultPrefix {
		fmt.Fprintf(w, "Generic address: %s\n", acc.Address(address.DefaultPrefix))
	}
}
