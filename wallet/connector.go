package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/TEENet-io/mintwrap-go/common"
)

var (
	ErrEmptyPrivateKey  = errors.New("empty private key")
	ErrEmptyKeystore    = errors.New("empty keystore path")
	ErrNilChainID       = errors.New("nil chain id")
	ErrNoConnectorFound = errors.New("no wallet connector configured")
)

// Connector yields a signing handle bound to a chain.
// Implementations stand for the different wallets a user may connect.
type Connector interface {
	Name() string
	Connect(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// KeyConnector signs with a raw hex private key.
type KeyConnector struct {
	PrivateKeyHex string
}

func (c *KeyConnector) Name() string {
	return "private-key"
}

func (c *KeyConnector) Connect(_ context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	if c.PrivateKeyHex == "" {
		return nil, ErrEmptyPrivateKey
	}
	if chainID == nil {
		return nil, ErrNilChainID
	}

	sk, err := common.StringToPrivateKey(c.PrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return bind.NewKeyedTransactorWithChainID(sk, chainID)
}

// KeystoreConnector signs with a key held in an encrypted keystore file.
type KeystoreConnector struct {
	Path       string
	Passphrase string
}

func (c *KeystoreConnector) Name() string {
	return "keystore"
}

func (c *KeystoreConnector) Connect(_ context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	if c.Path == "" {
		return nil, ErrEmptyKeystore
	}
	if chainID == nil {
		return nil, ErrNilChainID
	}

	keyJSON, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, c.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}

	return bind.NewKeyedTransactorWithChainID(key.PrivateKey, chainID)
}

// NewConnector picks the connector matching the given credentials.
// A private key takes precedence over a keystore file.
func NewConnector(privateKeyHex, keystorePath, passphrase string) (Connector, error) {
	switch {
	case privateKeyHex != "":
		return &KeyConnector{PrivateKeyHex: privateKeyHex}, nil
	case keystorePath != "":
		return &KeystoreConnector{Path: keystorePath, Passphrase: passphrase}, nil
	default:
		return nil, ErrNoConnectorFound
	}
}
