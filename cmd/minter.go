package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"

	mwcommon "github.com/TEENet-io/mintwrap-go/common"
	"github.com/TEENet-io/mintwrap-go/etherman"
	"github.com/TEENet-io/mintwrap-go/sequencer"
	"github.com/TEENet-io/mintwrap-go/status"
	"github.com/TEENet-io/mintwrap-go/wallet"
)

// Minter's configuration.
// Keep the fields as text, they come from env vars or a config file.
type MinterConfig struct {
	EthRpcUrl        string // json rpc url
	EthUserPriv      string // hex private key of the user, takes precedence over the keystore
	EthKeystoreFile  string // keystore json file of the user
	EthKeystorePass  string // passphrase of the keystore file
	MintContractAddr string // address of the mint contract
	WrapContractAddr string // address of the wrap contract
	MintPrice        string // paid per mint, in ether, e.g. "0.01"
	DefaultTokenURI  string // used when no uri is given to a wrap
	ChainId          string // the wallet must be on this chain
	ExplorerUrl      string // block explorer for tx links
}

// Minter wires the wallet, the sequencer and the status presenter
// together. Its action methods are where every failure ends up: they log
// it and put it on the status line before returning it.
type Minter struct {
	Config    *MinterConfig
	ChainId   *big.Int
	Etherman  *etherman.Etherman
	Provider  *wallet.Provider
	Session   *wallet.SessionState
	Presenter *status.Presenter
	Sequencer *sequencer.Sequencer

	rpcClient   *ethclient.Client // nil when the client is not owned
	unsubscribe func()
}

// NewMinter dials the rpc url of mc and creates a Minter over it.
// out receives the status lines and may be nil.
// Sequence metrics are registered to reg when it is not nil.
func NewMinter(mc *MinterConfig, out io.Writer, reg prometheus.Registerer) (*Minter, error) {
	rpcClient, err := ethclient.Dial(mc.EthRpcUrl)
	if err != nil {
		logger.WithField("url", mc.EthRpcUrl).Errorf("failed to connect to the Ethereum client: %v", err)
		return nil, err
	}

	m, err := NewMinterWithClient(mc, rpcClient, out, reg)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	m.rpcClient = rpcClient

	return m, nil
}

// NewMinterWithClient is NewMinter over an existing client.
func NewMinterWithClient(
	mc *MinterConfig,
	client etherman.EthereumClient,
	out io.Writer,
	reg prometheus.Registerer,
) (*Minter, error) {
	chainId, ok := new(big.Int).SetString(mc.ChainId, 10)
	if !ok {
		return nil, fmt.Errorf("invalid chain id: %q", mc.ChainId)
	}

	price, err := mwcommon.ParseEther(mc.MintPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid mint price %q: %w", mc.MintPrice, err)
	}

	if !common.IsHexAddress(mc.MintContractAddr) {
		return nil, fmt.Errorf("invalid mint contract address: %q", mc.MintContractAddr)
	}
	if !common.IsHexAddress(mc.WrapContractAddr) {
		return nil, fmt.Errorf("invalid wrap contract address: %q", mc.WrapContractAddr)
	}

	connector, err := wallet.NewConnector(mc.EthUserPriv, mc.EthKeystoreFile, mc.EthKeystorePass)
	if err != nil {
		return nil, err
	}

	myEtherman, err := etherman.NewEthermanWithClient(client, &etherman.Config{
		URL:                 mc.EthRpcUrl,
		MintContractAddress: common.HexToAddress(mc.MintContractAddr),
		WrapContractAddress: common.HexToAddress(mc.WrapContractAddr),
	})
	if err != nil {
		return nil, err
	}

	provider := wallet.NewProvider(connector, myEtherman, chainId)

	m := &Minter{
		Config:    mc,
		ChainId:   chainId,
		Etherman:  myEtherman,
		Provider:  provider,
		Session:   wallet.NewSessionState(provider),
		Presenter: status.NewPresenter(out),
	}

	m.Sequencer = sequencer.New(&sequencer.Config{
		MintPrice:       price,
		DefaultTokenURI: mc.DefaultTokenURI,
		ExplorerURL:     mc.ExplorerUrl,
	}, myEtherman, m.Presenter, m.onBusy)
	if reg != nil {
		m.Sequencer.WithMetrics(sequencer.NewMetrics(reg))
	}

	m.unsubscribe = provider.Subscribe(wallet.ListenerFunc(m.onSessionChange))
	m.Presenter.Show(status.Event{Phase: status.Disconnected})

	logger.WithFields(logger.Fields{
		"connector": connector.Name(),
		"mint":      mc.MintContractAddr,
		"wrap":      mc.WrapContractAddr,
		"chainId":   chainId,
	}).Debug("minter created")

	return m, nil
}

// Close unsubscribes from wallet changes and releases the rpc client.
func (m *Minter) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.rpcClient != nil {
		m.rpcClient.Close()
	}
}

func (m *Minter) onSessionChange(ev wallet.Event) {
	// the session must be current before the controls say so
	m.Session.OnSessionChange(ev)

	switch ev.Status {
	case wallet.Connected:
		if !m.Session.IsConnected() {
			m.Presenter.SetAccount(common.Address{})
			m.Presenter.SetMintEnabled(false)
			m.Presenter.Show(status.Event{Phase: status.Failed, Detail: "failed to obtain a signer"})
			return
		}
		m.Presenter.SetAccount(ev.Address)
		m.Presenter.SetMintEnabled(!m.Sequencer.Busy())
		m.Presenter.Show(status.Event{Phase: status.Connected})
	case wallet.Disconnected:
		m.Presenter.SetAccount(common.Address{})
		m.Presenter.SetMintEnabled(false)
		m.Presenter.Show(status.Event{Phase: status.Disconnected})
	}
}

func (m *Minter) onBusy(busy bool) {
	m.Presenter.SetMintEnabled(!busy && m.Session.IsConnected())
}

// Connect opens a wallet session.
func (m *Minter) Connect(ctx context.Context) (common.Address, error) {
	m.Presenter.Show(status.Event{Phase: status.Connecting})

	addr, err := m.Provider.Connect(ctx)
	if err != nil {
		m.fail("connect", err)
		return common.Address{}, err
	}

	return addr, nil
}

// Disconnect ends the wallet session. A running sequence is not aborted.
func (m *Minter) Disconnect() {
	m.Provider.Disconnect()
}

// MintAndWrap mints a token and wraps it with uri, or with the default
// token uri when uri is empty. Cancelling ctx does not stop it: once a tx
// is sent its confirmation is awaited.
func (m *Minter) MintAndWrap(ctx context.Context, uri string) (*sequencer.WrapConfirmation, error) {
	conf, err := m.Sequencer.ExecuteMintAndWrap(context.WithoutCancel(ctx), m.Session.Current(), uri)
	if err != nil {
		m.fail("mint and wrap", err)
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"tokenId": conf.TokenId,
		"mintTx":  conf.MintTxHash.Hex(),
		"wrapTx":  conf.WrapTxHash.Hex(),
	}).Info("nft minted and wrapped")

	return conf, nil
}

// Wrap wraps an already minted token. Like MintAndWrap it ignores
// cancellation of ctx.
func (m *Minter) Wrap(ctx context.Context, tokenId *big.Int, uri string) (*sequencer.WrapConfirmation, error) {
	conf, err := m.Sequencer.WrapExisting(context.WithoutCancel(ctx), m.Session.Current(), tokenId, uri)
	if err != nil {
		m.fail("wrap", err)
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"tokenId": conf.TokenId,
		"wrapTx":  conf.WrapTxHash.Hex(),
	}).Info("nft wrapped")

	return conf, nil
}

// Balance returns the wei balance of the connected account.
func (m *Minter) Balance(ctx context.Context) (common.Address, *big.Int, error) {
	session := m.Session.Current()
	if session == nil {
		return common.Address{}, nil, wallet.ErrNotConnected
	}

	balance, err := m.Etherman.BalanceAt(ctx, session.Address)
	if err != nil {
		return session.Address, nil, err
	}
	return session.Address, balance, nil
}

func (m *Minter) Status() status.Snapshot {
	return m.Presenter.Snapshot()
}

func (m *Minter) fail(action string, err error) {
	l := logger.WithFields(logger.Fields{
		"action":  action,
		"outcome": sequencer.Outcome(err),
	})

	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		// already on the status line
		l.Warn(err)
	case errors.Is(err, sequencer.ErrSequenceInFlight):
		// the status line belongs to the running sequence
		l.Warn(err)
	default:
		l.Error(err)
		m.Presenter.Show(status.Event{Phase: status.Failed, Detail: failureReason(err)})
	}
}

// failureReason is the short text shown to the user.
func failureReason(err error) string {
	var (
		mintErr *sequencer.MintFailedError
		wrapErr *sequencer.WrapFailedError
	)

	switch {
	case errors.As(err, &mintErr):
		return "Mint failed: " + rootCause(mintErr.Reason)
	case errors.Is(err, sequencer.ErrTokenIdNotFound):
		return "Mint event not found"
	case errors.As(err, &wrapErr):
		return fmt.Sprintf("Wrap of token %v failed: ", wrapErr.TokenId) + rootCause(wrapErr.Reason)
	default:
		return rootCause(err)
	}
}

func rootCause(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
