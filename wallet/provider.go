package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("wallet not connected")

func ErrChainIDUnmatched(expected, got *big.Int) error {
	return fmt.Errorf("chain id unmatched: expected %v, got %v", expected, got)
}

type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Provider manages the connect/disconnect lifecycle of one wallet and
// notifies a single subscriber of every change.
type Provider struct {
	connector Connector
	chain     ChainIDReader
	chainID   *big.Int // expected chain, nil accepts any

	mu       sync.Mutex
	signer   *bind.TransactOpts
	listener Listener
	subId    uint64
}

func NewProvider(connector Connector, chain ChainIDReader, expectedChainID *big.Int) *Provider {
	return &Provider{
		connector: connector,
		chain:     chain,
		chainID:   expectedChainID,
	}
}

// Subscribe makes l the active subscriber, replacing any previous one.
// The returned func removes l unless it has already been replaced.
func (p *Provider) Subscribe(l Listener) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subId++
	id := p.subId
	p.listener = l

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.subId == id {
			p.listener = nil
		}
	}
}

// Connect asks the connector for a signing handle on the current chain
// and announces the connected address.
func (p *Provider) Connect(ctx context.Context) (common.Address, error) {
	if p.connector == nil {
		return common.Address{}, ErrNoConnectorFound
	}

	chainID, err := p.chain.ChainID(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("fetch chain id: %w", err)
	}
	if p.chainID != nil && p.chainID.Cmp(chainID) != 0 {
		return common.Address{}, ErrChainIDUnmatched(p.chainID, chainID)
	}

	signer, err := p.connector.Connect(ctx, chainID)
	if err != nil {
		return common.Address{}, err
	}

	p.mu.Lock()
	p.signer = signer
	p.mu.Unlock()

	logger.WithFields(logger.Fields{
		"connector": p.connector.Name(),
		"address":   signer.From.Hex(),
		"chainId":   chainID,
	}).Info("wallet connected")

	p.notify(Event{Status: Connected, Address: signer.From})
	return signer.From, nil
}

// Disconnect drops the signing handle. It always notifies, connected or not.
func (p *Provider) Disconnect() {
	p.mu.Lock()
	p.signer = nil
	p.mu.Unlock()

	logger.Info("wallet disconnected")
	p.notify(Event{Status: Disconnected})
}

// Signer returns the signing handle of the connected wallet.
func (p *Provider) Signer(_ context.Context) (*bind.TransactOpts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.signer == nil {
		return nil, ErrNotConnected
	}
	return p.signer, nil
}

func (p *Provider) notify(ev Event) {
	p.mu.Lock()
	l := p.listener
	p.mu.Unlock()

	if l != nil {
		l.OnSessionChange(ev)
	}
}
