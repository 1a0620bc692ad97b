/*
Package account provides sr25519 accounts able to sign Avail extrinsics.
Keys are derived from secret URIs (mnemonic phrase or hex seed optionally
followed by derivation paths, like "//Alice" or "<phrase>//hard/soft").
*/
package account

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// keyringNetwork is the SS58 prefix for keyring pair addresses, addresses for
// other networks are produced by Address.
const keyringNetwork = 42

// ErrEmptySecret is returned for empty secret URIs.
var ErrEmptySecret = errors.New("empty secret")

// Account is an sr25519 key pair.
type Account struct {
	pair signature.KeyringPair
	id   util.AccountID

	// Label is an optional human-readable account name.
	Label string
}

// NewFromURI derives an account from the secret URI.
func NewFromURI(uri string) (*Account, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, ErrEmptySecret
	}
	pair, err := signature.KeyringPairFromSecret(uri, keyringNetwork)
	if err != nil {
		return nil, fmt.Errorf("invalid secret: %w", err)
	}
	id, err := util.AccountIDDecodeBytes(pair.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Account{pair: pair, id: id}, nil
}

// AccountID returns the account public key.
func (a *Account) AccountID() util.AccountID {
	return a.id
}

// Address returns SS58 address of the account for the given network prefix.
func (a *Account) Address(prefix uint16) string {
	return address.Encode(a.id, prefix)
}

// Sign signs the payload.
func (a *Account) Sign(payload []byte) ([]byte, error) {
	return signature.Sign(payload, a.pair.URI)
}

// Verify checks the signature of the payload made by this account.
func (a *Account) Verify(payload, sig []byte) (bool, error) {
	return signature.Verify(payload, sig, a.pair.URI)
}

// String implements the fmt.Stringer interface.
func (a *Account) String() string {
	if a.Label != "" {
		return a.Label + " (" + address.EncodeDefault(a.id) + ")"
	}
	return address.EncodeDefault(a.id)
}
