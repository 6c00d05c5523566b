package etherman

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
)

var (
	SimulatedChainID = big.NewInt(1337)
	blockGasLimit    = uint64(999999999999999999)

	TransferSignatureHash = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

type SimulatedChain struct {
	Backend  *simulated.Backend
	Accounts []*bind.TransactOpts
}

func NewSimulatedChain(sks []*ecdsa.PrivateKey, chainID *big.Int) *SimulatedChain {
	// create accounts
	accounts := make([]*bind.TransactOpts, len(sks))
	for i, sk := range sks {
		accounts[i] = NewAuth(sk, chainID)
	}

	// allocate funds to accounts
	genesisAlloc := map[common.Address]types.Account{}
	for _, account := range accounts {
		balance, _ := new(big.Int).SetString("100000000000000000000", 10)
		genesisAlloc[account.From] = types.Account{
			Balance: balance,
		}
	}

	// create simulated backend
	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(blockGasLimit))

	return &SimulatedChain{
		Backend:  backend,
		Accounts: accounts,
	}
}

// AutoCommit mines a block every interval until ctx is done,
// standing in for the block production of a live chain.
func (sim *SimulatedChain) AutoCommit(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sim.Backend.Commit()
		}
	}
}

func (sim *SimulatedChain) Close() error {
	return sim.Backend.Close()
}

// Hand-assembled contracts deployed on the simulated chain. They only
// reproduce the observable behaviour the client depends on.
var (
	// PUSH1 0 SLOAD PUSH1 1 ADD DUP1 PUSH1 0 SSTORE   counter += 1, keep it on stack
	// CALLER PUSH1 0 PUSH32 <Transfer>                to, from, topic0
	// PUSH1 0 PUSH1 0 LOG4 STOP                       Transfer(0, caller, counter)
	mintingRuntime = append(append(
		common.FromHex("0x600054600101806000553360007f"),
		TransferSignatureHash.Bytes()...),
		common.FromHex("0x60006000a400")...)

	// STOP
	acceptingRuntime = []byte{0x00}

	// PUSH1 0 DUP1 REVERT
	revertingRuntime = common.FromHex("0x600080fd")
)

// deployCode prepends the init code that copies runtime to memory and returns it:
// PUSH1 len DUP1 PUSH1 11 PUSH1 0 CODECOPY PUSH1 0 RETURN
func deployCode(runtime []byte) []byte {
	initCode := []byte{0x60, byte(len(runtime)), 0x80, 0x60, 0x0b, 0x60, 0x00, 0x39, 0x60, 0x00, 0xf3}
	return append(initCode, runtime...)
}

func (sim *SimulatedChain) deploy(auth *bind.TransactOpts, runtime []byte) (common.Address, error) {
	addr, tx, _, err := bind.DeployContract(auth, abi.ABI{}, deployCode(runtime), sim.Backend.Client())
	if err != nil {
		return common.Address{}, err
	}
	sim.Backend.Commit()

	if _, err := bind.WaitDeployed(context.Background(), sim.Backend.Client(), tx); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// DeployMintingContract deploys a contract that emits an ERC-721 Transfer
// from the zero address to the caller with an increasing token id
// (1, 2, ...) on every call.
func (sim *SimulatedChain) DeployMintingContract(auth *bind.TransactOpts) (common.Address, error) {
	return sim.deploy(auth, mintingRuntime)
}

// DeployAcceptingContract deploys a contract that accepts any call and emits nothing.
func (sim *SimulatedChain) DeployAcceptingContract(auth *bind.TransactOpts) (common.Address, error) {
	return sim.deploy(auth, acceptingRuntime)
}

// DeployRevertingContract deploys a contract that reverts every call.
func (sim *SimulatedChain) DeployRevertingContract(auth *bind.TransactOpts) (common.Address, error) {
	return sim.deploy(auth, revertingRuntime)
}

// SimEtherman is an Etherman bound to contracts on a simulated chain.
type SimEtherman struct {
	Chain    *SimulatedChain
	Etherman *Etherman
}

// NewSimEtherman deploys a minting and an accepting contract with account 0.
func NewSimEtherman(sks []*ecdsa.PrivateKey) (*SimEtherman, error) {
	chain := NewSimulatedChain(sks, SimulatedChainID)
	deployer := chain.Accounts[0]

	mintAddr, err := chain.DeployMintingContract(deployer)
	if err != nil {
		return nil, err
	}
	wrapAddr, err := chain.DeployAcceptingContract(deployer)
	if err != nil {
		return nil, err
	}

	etherman, err := NewEthermanWithClient(chain.Backend.Client(), &Config{
		MintContractAddress: mintAddr,
		WrapContractAddress: wrapAddr,
	})
	if err != nil {
		return nil, err
	}

	return &SimEtherman{
		Chain:    chain,
		Etherman: etherman,
	}, nil
}
