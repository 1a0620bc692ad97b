package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/nspcc-dev/avail-go/cli/flags"
	"github.com/nspcc-dev/avail-go/cli/options"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
)

// NewCommands returns util commands for avail-go CLI.
func NewCommands() []cli.Command {
	prefixFlag := cli.UintFlag{
		Name:  "prefix, p",
		Usage: "SS58 prefix to format addresses with",
		Value: uint(address.DefaultPrefix),
	}
	inspectFlags := append([]cli.Flag{prefixFlag}, options.Signer...)
	inspectFlags = append(inspectFlags, options.Config, options.ConfigFile)
	inspectFlags = append(inspectFlags, options.Network...)
	return []cli.Command{
		{
			Name:  "util",
			Usage: "Various helper commands",
			Subcommands: []cli.Command{
				{
					Name:  "convert",
					Usage: "Convert provided argument into other possible formats",
					UsageText: `convert [--prefix <prefix>] <arg>

<arg> is an argument which is tried to be interpreted as an address, account ID,
        hex data, number or string and converted to other formats.`,
					Action: handleConvert,
					Flags:  []cli.Flag{prefixFlag},
				},
				{
					Name:      "hash",
					Usage:     "Hash data with storage hashers",
					UsageText: "hash [--hasher <name>] <string|0x-hex>",
					Action:    handleHash,
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "hasher",
							Usage: "Hasher to use (Blake2_128, Blake2_256, Blake2_128Concat, Twox128, Twox256, Twox64Concat, Identity), all by default",
						},
					},
				},
				{
					Name:  "storage-key",
					Usage: "Compute the storage key of a pallet item",
					UsageText: `storage-key <pallet> <item> [<hasher>:<0x-key>...]

Map keys are SCALE-encoded hex values preceded by the hasher name, for example
        Blake2_128Concat:0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d`,
					Action: handleStorageKey,
				},
				{
					Name:      "inspect",
					Usage:     "Show account ID and address of the signing key",
					UsageText: "inspect [--seed-file <file>|--dev <name>] [--prefix <prefix>]",
					Action:    handleInspect,
					Flags:     inspectFlags,
				},
			},
		},
	}
}

func handleConvert(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError("exactly one argument is expected", 1)
	}
	res, err := Convert(ctx.Args()[0], uint16(ctx.Uint("prefix")))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprint(ctx.App.Writer, res)
	return nil
}

// Convert interprets the argument in every possible way and returns its
// representations, one per line.
func Convert(arg string, prefix uint16) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("empty argument")
	}
	buf := bytes.NewBuffer(nil)
	w := tabwriter.NewWriter(buf, 0, 4, 2, ' ', 0)
	if id, p, err := address.Decode(arg); err == nil {
		_, _ = fmt.Fprintf(w, "Address to account ID\t%s\n", id)
		_, _ = fmt.Fprintf(w, "Address network prefix\t%d\n", p)
		if p != prefix {
			_, _ = fmt.Fprintf(w, "Address with prefix %d\t%s\n", prefix, address.Encode(id, prefix))
		}
	}
	if strings.HasPrefix(arg, "0x") {
		if b, err := util.HexBytesDecodeString(arg); err == nil {
			if id, err := util.AccountIDDecodeBytes(b); err == nil {
				_, _ = fmt.Fprintf(w, "Account ID to address\t%s\n", address.Encode(id, prefix))
			}
			if len(b) > 0 && isPrintable(b) {
				_, _ = fmt.Fprintf(w, "Hex to string\t%q\n", string(b))
			}
			_, _ = fmt.Fprintf(w, "Hex to Blake2_256\t%s\n", hash.Blake2b256(b))
		}
	}
	if n, ok := new(big.Int).SetString(arg, 10); ok && n.Sign() >= 0 {
		if c, err := extrinsic.CompactBig(n); err == nil {
			_, _ = fmt.Fprintf(w, "Number to compact\t%s\n", util.HexBytes(c))
		}
		_, _ = fmt.Fprintf(w, "Planck to AVAIL\t%s\n", flags.FormatAmount(n, flags.AvailDecimals))
	}
	if v, err := flags.ParseAmount(arg, flags.AvailDecimals); err == nil {
		_, _ = fmt.Fprintf(w, "AVAIL to planck\t%s\n", v)
	}
	_, _ = fmt.Fprintf(w, "String to hex\t%s\n", util.HexBytes(arg))
	_, _ = fmt.Fprintf(w, "String to Blake2_256\t%s\n", hash.Blake2b256([]byte(arg)))
	_, _ = fmt.Fprintf(w, "String to Twox128\t0x%s\n", hex.EncodeToString(hash.Twox128([]byte(arg))))
	_ = w.Flush()
	return buf.String(), nil
}

func isPrintable(b []byte) bool {
	for _, r := range string(b) {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
