// Package sequencer runs the mint-then-wrap transaction sequence.
package sequencer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"

	mwcommon "github.com/TEENet-io/mintwrap-go/common"
	"github.com/TEENet-io/mintwrap-go/contracts/NFTMinter"
	"github.com/TEENet-io/mintwrap-go/etherman"
	"github.com/TEENet-io/mintwrap-go/status"
	"github.com/TEENet-io/mintwrap-go/wallet"
)

// Chain is what the sequencer needs from the contract-call layer.
// *etherman.Etherman implements it.
type Chain interface {
	MintNFT(ctx context.Context, auth *bind.TransactOpts, price *big.Int) (*types.Transaction, error)
	Wrap(ctx context.Context, auth *bind.TransactOpts, tokenId *big.Int, uri string) (*types.Transaction, error)
	WaitForTxReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	TryDecodeMintLog(vlog *types.Log) (*etherman.DecodedEvent, bool)
}

// Reporter receives the progress of a sequence.
type Reporter interface {
	Show(ev status.Event)
}

type Config struct {
	MintPrice       *big.Int
	DefaultTokenURI string
	ExplorerURL     string
}

// WrapConfirmation is returned once the wrap tx is confirmed.
type WrapConfirmation struct {
	TokenId    *big.Int
	URI        string
	MintTxHash common.Hash // zero for WrapExisting
	WrapTxHash common.Hash
}

type Sequencer struct {
	cfg      *Config
	chain    Chain
	reporter Reporter
	gate     *Gate
	metrics  *Metrics
}

// New creates a sequencer. onBusy is handed to the gate and may be nil.
func New(cfg *Config, chain Chain, reporter Reporter, onBusy func(busy bool)) *Sequencer {
	return &Sequencer{
		cfg:      cfg,
		chain:    chain,
		reporter: reporter,
		gate:     NewGate(onBusy),
	}
}

// WithMetrics makes the sequencer record outcomes and durations to m.
func (s *Sequencer) WithMetrics(m *Metrics) *Sequencer {
	s.metrics = m
	return s
}

func (s *Sequencer) Busy() bool {
	return s.gate.Busy()
}

// ExecuteMintAndWrap mints a token paying the configured price, finds its
// id in the mint receipt and wraps it with uri, or with the default token
// uri when uri is empty. It returns after both txs are confirmed.
//
// Nothing is retried. A WrapFailedError means the token exists unwrapped.
func (s *Sequencer) ExecuteMintAndWrap(
	ctx context.Context,
	session *wallet.Session,
	uri string,
) (conf *WrapConfirmation, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &UnexpectedError{Message: fmt.Sprint(r)}
			conf = nil
		}
		s.metrics.observe(KindMintAndWrap, err, time.Since(start))
	}()

	if session == nil || session.Signer == nil {
		s.show(status.NotConnected, "")
		return nil, ErrNotConnected
	}

	if !s.gate.TryEnter() {
		return nil, ErrSequenceInFlight
	}
	defer s.gate.Leave()

	s.show(status.Minting, "")

	mintTx, err := s.chain.MintNFT(ctx, session.Signer, s.cfg.MintPrice)
	if err != nil {
		return nil, &MintFailedError{Reason: err}
	}

	logger.WithFields(logger.Fields{
		"tx":   mintTx.Hash().Hex(),
		"from": session.Address.Hex(),
	}).Info("mint tx sent")

	receipt, err := s.chain.WaitForTxReceipt(ctx, mintTx)
	if err != nil {
		return nil, &MintFailedError{TxHash: mintTx.Hash(), Reason: err}
	}

	s.show(status.Minted, mwcommon.ExplorerTxLink(s.cfg.ExplorerURL, mintTx.Hash()))

	tokenId, ok := ExtractTokenId(receipt, s.chain)
	if !ok {
		return nil, fmt.Errorf("%w: tx %s", ErrTokenIdNotFound, mintTx.Hash().Hex())
	}

	logger.WithFields(logger.Fields{
		"tx":      mintTx.Hash().Hex(),
		"tokenId": tokenId,
	}).Info("token minted")

	conf, err = s.wrap(ctx, session, tokenId, uri)
	if err != nil {
		return nil, err
	}
	conf.MintTxHash = mintTx.Hash()

	return conf, nil
}

// WrapExisting wraps an already minted token. It shares the gate with
// ExecuteMintAndWrap.
func (s *Sequencer) WrapExisting(
	ctx context.Context,
	session *wallet.Session,
	tokenId *big.Int,
	uri string,
) (conf *WrapConfirmation, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &UnexpectedError{Message: fmt.Sprint(r)}
			conf = nil
		}
		s.metrics.observe(KindWrap, err, time.Since(start))
	}()

	if session == nil || session.Signer == nil {
		s.show(status.NotConnected, "")
		return nil, ErrNotConnected
	}
	if tokenId == nil {
		return nil, &WrapFailedError{Reason: etherman.ErrNilTokenId}
	}

	if !s.gate.TryEnter() {
		return nil, ErrSequenceInFlight
	}
	defer s.gate.Leave()

	return s.wrap(ctx, session, tokenId, uri)
}

func (s *Sequencer) wrap(
	ctx context.Context,
	session *wallet.Session,
	tokenId *big.Int,
	uri string,
) (*WrapConfirmation, error) {
	if uri == "" {
		uri = s.cfg.DefaultTokenURI
	}

	s.show(status.Wrapping, "")

	wrapTx, err := s.chain.Wrap(ctx, session.Signer, tokenId, uri)
	if err != nil {
		return nil, &WrapFailedError{TokenId: tokenId, Reason: err}
	}

	logger.WithFields(logger.Fields{
		"tx":      wrapTx.Hash().Hex(),
		"tokenId": tokenId,
	}).Info("wrap tx sent")

	if _, err := s.chain.WaitForTxReceipt(ctx, wrapTx); err != nil {
		return nil, &WrapFailedError{TokenId: tokenId, TxHash: wrapTx.Hash(), Reason: err}
	}

	s.show(status.Succeeded, "")

	return &WrapConfirmation{
		TokenId:    tokenId,
		URI:        uri,
		WrapTxHash: wrapTx.Hash(),
	}, nil
}

func (s *Sequencer) show(phase status.Phase, detail string) {
	if s.reporter == nil {
		return
	}
	s.reporter.Show(status.Event{Phase: phase, Detail: detail})
}

// LogDecoder decodes a receipt log against the mint contract interface.
type LogDecoder interface {
	TryDecodeMintLog(vlog *types.Log) (*etherman.DecodedEvent, bool)
}

// ExtractTokenId returns the token id of the first Transfer event in the
// receipt. Logs that do not decode are skipped. The id is read from the
// tokenId field, or from the third argument when the field is unnamed.
func ExtractTokenId(receipt *types.Receipt, decoder LogDecoder) (*big.Int, bool) {
	if receipt == nil {
		return nil, false
	}

	for _, vlog := range receipt.Logs {
		ev, ok := decoder.TryDecodeMintLog(vlog)
		if !ok || ev.Name != NFTMinter.EventTransfer {
			continue
		}
		return ev.BigIntArg(NFTMinter.TransferTokenIdField, NFTMinter.TransferTokenIdIndex)
	}

	return nil, false
}
