package sequencer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/mintwrap-go/contracts/NFTMinter"
	"github.com/TEENet-io/mintwrap-go/contracts/NFTWrapper"
	"github.com/TEENet-io/mintwrap-go/etherman"
	"github.com/TEENet-io/mintwrap-go/status"
	"github.com/TEENet-io/mintwrap-go/wallet"
)

const (
	mintNonce = 1
	wrapNonce = 2
)

var approvalSignatureHash = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))

type mockChain struct {
	abi *abi.ABI

	mu          sync.Mutex
	mintErr     error
	mintWaitErr error
	wrapErr     error
	wrapWaitErr error
	mintLogs    []*types.Log
	mintCalls   int
	wrapCalls   int
	wrappedId   *big.Int
	wrappedURI  string
	panicOnWrap bool

	// when set, waiting for the mint receipt signals started and
	// blocks until release is closed
	started chan struct{}
	release chan struct{}
}

func newMockChain(t *testing.T, logs ...*types.Log) *mockChain {
	parsed, err := NFTMinter.NFTMinterMetaData.GetAbi()
	require.NoError(t, err)
	return &mockChain{abi: parsed, mintLogs: logs}
}

func (c *mockChain) MintNFT(_ context.Context, _ *bind.TransactOpts, price *big.Int) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mintCalls++
	if c.mintErr != nil {
		return nil, c.mintErr
	}
	return types.NewTx(&types.LegacyTx{Nonce: mintNonce, Value: price}), nil
}

func (c *mockChain) Wrap(_ context.Context, _ *bind.TransactOpts, tokenId *big.Int, uri string) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wrapCalls++
	if c.panicOnWrap {
		panic("boom")
	}
	if c.wrapErr != nil {
		return nil, c.wrapErr
	}
	c.wrappedId = tokenId
	c.wrappedURI = uri
	return types.NewTx(&types.LegacyTx{Nonce: wrapNonce}), nil
}

func (c *mockChain) WaitForTxReceipt(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if tx.Nonce() == mintNonce && c.started != nil {
		close(c.started)
		<-c.release
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tx.Nonce() == mintNonce {
		if c.mintWaitErr != nil {
			return nil, c.mintWaitErr
		}
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash(), Logs: c.mintLogs}, nil
	}
	if c.wrapWaitErr != nil {
		return nil, c.wrapWaitErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (c *mockChain) TryDecodeMintLog(vlog *types.Log) (*etherman.DecodedEvent, bool) {
	return etherman.DecodeLog(c.abi, vlog)
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []status.Phase
	events []status.Event
}

func (r *phaseRecorder) Show(ev status.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, ev.Phase)
	r.events = append(r.events, ev)
}

type busyRecorder struct {
	mu      sync.Mutex
	changes []bool
}

func (r *busyRecorder) onBusy(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, busy)
}

func transferLog(from, to common.Address, tokenId int64) *types.Log {
	return &types.Log{
		Topics: []common.Hash{
			etherman.TransferSignatureHash,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
			common.BigToHash(big.NewInt(tokenId)),
		},
	}
}

func approvalLog(owner, spender common.Address, tokenId int64) *types.Log {
	return &types.Log{
		Topics: []common.Hash{
			approvalSignatureHash,
			common.BytesToHash(owner.Bytes()),
			common.BytesToHash(spender.Bytes()),
			common.BigToHash(big.NewInt(tokenId)),
		},
	}
}

func testConfig() *Config {
	return &Config{
		MintPrice:       big.NewInt(10000000000000000),
		DefaultTokenURI: NFTWrapper.DefaultTokenURI,
		ExplorerURL:     "https://bscscan.com",
	}
}

func testSession() *wallet.Session {
	sk, _ := crypto.GenerateKey()
	auth := etherman.NewAuth(sk, big.NewInt(56))
	return &wallet.Session{Address: auth.From, Signer: auth}
}

func TestExecuteMintAndWrap(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	chain := newMockChain(t, approvalLog(a, b, 5), transferLog(a, b, 77))
	rep := &phaseRecorder{}
	busy := &busyRecorder{}
	s := New(testConfig(), chain, rep, busy.onBusy)

	conf, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(77), conf.TokenId)
	assert.Equal(t, NFTWrapper.DefaultTokenURI, conf.URI)
	assert.NotEqual(t, common.Hash{}, conf.MintTxHash)
	assert.NotEqual(t, common.Hash{}, conf.WrapTxHash)

	assert.Equal(t, big.NewInt(77), chain.wrappedId)
	assert.Equal(t, NFTWrapper.DefaultTokenURI, chain.wrappedURI)
	assert.Equal(t, []status.Phase{status.Minting, status.Minted, status.Wrapping, status.Succeeded}, rep.phases)
	assert.Equal(t, "https://bscscan.com/tx/"+conf.MintTxHash.Hex(), rep.events[1].Detail)
	assert.Equal(t, []bool{true, false}, busy.changes)
	assert.False(t, s.Busy())
}

func TestExecuteMintAndWrapCustomURI(t *testing.T) {
	chain := newMockChain(t, transferLog(common.Address{}, common.HexToAddress("0xb"), 0))
	s := New(testConfig(), chain, nil, nil)

	conf, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "ipfs://custom")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://custom", chain.wrappedURI)
	// zero is a valid token id
	assert.Equal(t, 0, conf.TokenId.Sign())
}

func TestExecuteMintAndWrapNotConnected(t *testing.T) {
	chain := newMockChain(t)
	rep := &phaseRecorder{}
	busy := &busyRecorder{}
	s := New(testConfig(), chain, rep, busy.onBusy)

	_, err := s.ExecuteMintAndWrap(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = s.ExecuteMintAndWrap(context.Background(), &wallet.Session{}, "")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.Zero(t, chain.mintCalls)
	assert.Equal(t, []status.Phase{status.NotConnected, status.NotConnected}, rep.phases)
	assert.Empty(t, busy.changes)
}

func TestExecuteMintAndWrapNoTransfer(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	chain := newMockChain(t, approvalLog(a, b, 5), &types.Log{})
	busy := &busyRecorder{}
	s := New(testConfig(), chain, nil, busy.onBusy)

	_, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "")
	assert.ErrorIs(t, err, ErrTokenIdNotFound)
	assert.Equal(t, OutcomeTokenIdNotFound, Outcome(err))
	assert.Equal(t, 1, chain.mintCalls)
	assert.Zero(t, chain.wrapCalls)
	assert.Equal(t, []bool{true, false}, busy.changes)
}

func TestExecuteMintAndWrapMintFailed(t *testing.T) {
	for name, setup := range map[string]func(c *mockChain){
		"send":   func(c *mockChain) { c.mintErr = errors.New("insufficient funds") },
		"revert": func(c *mockChain) { c.mintWaitErr = etherman.ErrTxReverted },
	} {
		t.Run(name, func(t *testing.T) {
			chain := newMockChain(t, transferLog(common.Address{}, common.HexToAddress("0xb"), 1))
			setup(chain)
			busy := &busyRecorder{}
			s := New(testConfig(), chain, nil, busy.onBusy)

			_, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "")
			var mintErr *MintFailedError
			require.ErrorAs(t, err, &mintErr)
			assert.Equal(t, OutcomeMintFailed, Outcome(err))
			assert.Zero(t, chain.wrapCalls)
			assert.Equal(t, []bool{true, false}, busy.changes)
		})
	}
}

func TestExecuteMintAndWrapWrapFailed(t *testing.T) {
	chain := newMockChain(t, transferLog(common.Address{}, common.HexToAddress("0xb"), 9))
	chain.wrapWaitErr = etherman.ErrTxReverted
	rep := &phaseRecorder{}
	s := New(testConfig(), chain, rep, nil)

	_, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "")
	var wrapErr *WrapFailedError
	require.ErrorAs(t, err, &wrapErr)
	assert.Equal(t, big.NewInt(9), wrapErr.TokenId)
	assert.ErrorIs(t, err, etherman.ErrTxReverted)
	assert.Contains(t, err.Error(), "not wrapped")
	assert.Equal(t, []status.Phase{status.Minting, status.Minted, status.Wrapping}, rep.phases)
}

func TestExecuteMintAndWrapPanic(t *testing.T) {
	chain := newMockChain(t, transferLog(common.Address{}, common.HexToAddress("0xb"), 1))
	chain.panicOnWrap = true
	busy := &busyRecorder{}
	s := New(testConfig(), chain, nil, busy.onBusy)

	conf, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "")
	assert.Nil(t, conf)
	var unexpected *UnexpectedError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "boom", unexpected.Message)
	assert.Equal(t, []bool{true, false}, busy.changes)
	assert.False(t, s.Busy())
}

func TestSequenceInFlight(t *testing.T) {
	chain := newMockChain(t, transferLog(common.Address{}, common.HexToAddress("0xb"), 3))
	chain.started = make(chan struct{})
	chain.release = make(chan struct{})
	busy := &busyRecorder{}
	s := New(testConfig(), chain, nil, busy.onBusy)
	session := testSession()

	done := make(chan error, 1)
	go func() {
		_, err := s.ExecuteMintAndWrap(context.Background(), session, "")
		done <- err
	}()
	<-chain.started

	assert.True(t, s.Busy())
	_, err := s.ExecuteMintAndWrap(context.Background(), session, "")
	assert.ErrorIs(t, err, ErrSequenceInFlight)
	_, err = s.WrapExisting(context.Background(), session, big.NewInt(1), "")
	assert.ErrorIs(t, err, ErrSequenceInFlight)

	close(chain.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, chain.mintCalls)
	assert.Equal(t, 1, chain.wrapCalls)
	assert.Equal(t, []bool{true, false}, busy.changes)
}

type chainIDReader struct{}

func (chainIDReader) ChainID(_ context.Context) (*big.Int, error) {
	return big.NewInt(56), nil
}

func TestDisconnectMidSequence(t *testing.T) {
	sk, err := crypto.GenerateKey()
	require.NoError(t, err)
	connector := &wallet.KeyConnector{PrivateKeyHex: common.Bytes2Hex(crypto.FromECDSA(sk))}
	provider := wallet.NewProvider(connector, chainIDReader{}, big.NewInt(56))
	state := wallet.NewSessionState(provider)
	unsubscribe := provider.Subscribe(state)
	defer unsubscribe()

	_, err = provider.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, state.IsConnected())

	chain := newMockChain(t, transferLog(common.Address{}, common.HexToAddress("0xb"), 4))
	chain.started = make(chan struct{})
	chain.release = make(chan struct{})
	s := New(testConfig(), chain, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.ExecuteMintAndWrap(context.Background(), state.Current(), "")
		done <- err
	}()
	<-chain.started

	provider.Disconnect()
	assert.False(t, state.IsConnected())

	close(chain.release)
	// the running sequence is not aborted
	require.NoError(t, <-done)
	assert.Equal(t, big.NewInt(4), chain.wrappedId)

	_, err = s.ExecuteMintAndWrap(context.Background(), state.Current(), "")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 1, chain.mintCalls)
}

func TestWrapExisting(t *testing.T) {
	chain := newMockChain(t)
	rep := &phaseRecorder{}
	busy := &busyRecorder{}
	s := New(testConfig(), chain, rep, busy.onBusy)

	conf, err := s.WrapExisting(context.Background(), testSession(), big.NewInt(12), "ipfs://w")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12), conf.TokenId)
	assert.Equal(t, common.Hash{}, conf.MintTxHash)
	assert.Zero(t, chain.mintCalls)
	assert.Equal(t, "ipfs://w", chain.wrappedURI)
	assert.Equal(t, []status.Phase{status.Wrapping, status.Succeeded}, rep.phases)
	assert.Equal(t, []bool{true, false}, busy.changes)

	_, err = s.WrapExisting(context.Background(), nil, big.NewInt(12), "")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = s.WrapExisting(context.Background(), testSession(), nil, "")
	var wrapErr *WrapFailedError
	assert.ErrorAs(t, err, &wrapErr)

	chain.wrapErr = errors.New("rejected")
	_, err = s.WrapExisting(context.Background(), testSession(), big.NewInt(12), "")
	assert.ErrorAs(t, err, &wrapErr)
	assert.Equal(t, OutcomeWrapFailed, Outcome(err))
}

func TestExtractTokenId(t *testing.T) {
	chain := newMockChain(t)
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")

	id, ok := ExtractTokenId(&types.Receipt{Logs: []*types.Log{approvalLog(a, b, 1), transferLog(a, b, 77)}}, chain)
	assert.True(t, ok)
	assert.Equal(t, big.NewInt(77), id)

	// the first Transfer wins
	id, ok = ExtractTokenId(&types.Receipt{Logs: []*types.Log{transferLog(a, b, 2), transferLog(a, b, 3)}}, chain)
	assert.True(t, ok)
	assert.Equal(t, big.NewInt(2), id)

	_, ok = ExtractTokenId(&types.Receipt{}, chain)
	assert.False(t, ok)
	_, ok = ExtractTokenId(nil, chain)
	assert.False(t, ok)
}

func TestGate(t *testing.T) {
	busy := &busyRecorder{}
	g := NewGate(busy.onBusy)

	assert.True(t, g.TryEnter())
	assert.False(t, g.TryEnter())
	g.Leave()
	g.Leave()
	assert.True(t, g.TryEnter())
	g.Leave()

	assert.Equal(t, []bool{true, false, true, false}, busy.changes)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	chain := newMockChain(t)
	s := New(testConfig(), chain, nil, nil).WithMetrics(m)

	_, err := s.ExecuteMintAndWrap(context.Background(), testSession(), "")
	assert.ErrorIs(t, err, ErrTokenIdNotFound)
	_, err = s.WrapExisting(context.Background(), testSession(), big.NewInt(1), "")
	assert.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.sequences.WithLabelValues(KindMintAndWrap, OutcomeTokenIdNotFound)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sequences.WithLabelValues(KindWrap, OutcomeSuccess)))
}

func TestSimulatedMintAndWrap(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for simulated blocks")
	}

	env, err := etherman.NewSimEtherman(etherman.GenPrivateKeys(2))
	require.NoError(t, err)
	defer env.Chain.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go env.Chain.AutoCommit(ctx, 100*time.Millisecond)

	user := env.Chain.Accounts[1]
	session := &wallet.Session{Address: user.From, Signer: user}
	s := New(testConfig(), env.Etherman, nil, nil)

	conf, err := s.ExecuteMintAndWrap(ctx, session, "")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), conf.TokenId)

	conf, err = s.ExecuteMintAndWrap(ctx, session, "ipfs://second")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2), conf.TokenId)
	assert.Equal(t, "ipfs://second", conf.URI)
}
