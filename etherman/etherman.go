package etherman

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/mintwrap-go/contracts/NFTMinter"
	"github.com/TEENet-io/mintwrap-go/contracts/NFTWrapper"
)

var (
	ErrNilSigner      = errors.New("nil signer")
	ErrNilTokenId     = errors.New("nil token id")
	ErrNilTransaction = errors.New("nil transaction")
	ErrTxReverted     = errors.New("transaction reverted")
)

// EthereumClient is the subset of an rpc client the contract calls rely on.
// *ethclient.Client and the simulated backend client both satisfy it.
type EthereumClient interface {
	ethereum.ChainReader
	ethereum.ChainStateReader
	ethereum.TransactionReader

	bind.ContractBackend
	bind.DeployBackend

	ChainID(ctx context.Context) (*big.Int, error)
}

type Etherman struct {
	ethClient    EthereumClient
	mintAddress  ethcommon.Address
	wrapAddress  ethcommon.Address
	mintABI      *abi.ABI
	wrapABI      *abi.ABI
	mintContract *bind.BoundContract
	wrapContract *bind.BoundContract
}

func NewEtherman(cfg *Config) (*Etherman, error) {
	ethClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		logger.WithField("url", cfg.URL).Errorf("failed to dial eth client: %v", err)
		return nil, err
	}

	return NewEthermanWithClient(ethClient, cfg)
}

// NewEthermanWithClient binds both contracts over an existing client.
func NewEthermanWithClient(ethClient EthereumClient, cfg *Config) (*Etherman, error) {
	mintABI, err := NFTMinter.NFTMinterMetaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("parse mint abi: %w", err)
	}
	wrapABI, err := NFTWrapper.NFTWrapperMetaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("parse wrap abi: %w", err)
	}

	return &Etherman{
		ethClient:    ethClient,
		mintAddress:  cfg.MintContractAddress,
		wrapAddress:  cfg.WrapContractAddress,
		mintABI:      mintABI,
		wrapABI:      wrapABI,
		mintContract: bind.NewBoundContract(cfg.MintContractAddress, *mintABI, ethClient, ethClient, ethClient),
		wrapContract: bind.NewBoundContract(cfg.WrapContractAddress, *wrapABI, ethClient, ethClient, ethClient),
	}, nil
}

func (etherman *Etherman) Client() EthereumClient {
	return etherman.ethClient
}

func (etherman *Etherman) MintContractAddress() ethcommon.Address {
	return etherman.mintAddress
}

func (etherman *Etherman) WrapContractAddress() ethcommon.Address {
	return etherman.wrapAddress
}

func (etherman *Etherman) ChainID(ctx context.Context) (*big.Int, error) {
	return etherman.ethClient.ChainID(ctx)
}

func (etherman *Etherman) BalanceAt(ctx context.Context, addr ethcommon.Address) (*big.Int, error) {
	return etherman.ethClient.BalanceAt(ctx, addr, nil)
}

// MintNFT calls the payable mintNFT() paying price wei.
// It returns once the transaction is submitted.
func (etherman *Etherman) MintNFT(
	ctx context.Context,
	auth *bind.TransactOpts,
	price *big.Int,
) (*types.Transaction, error) {
	if auth == nil {
		return nil, ErrNilSigner
	}

	opts := *auth
	opts.Context = ctx
	opts.Value = price

	tx, err := etherman.mintContract.Transact(&opts, NFTMinter.MethodMintNFT)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"tx":    tx.Hash().Hex(),
		"from":  auth.From.Hex(),
		"price": price,
	}).Debug("mintNFT tx sent")

	return tx, nil
}

// Wrap calls wrap(tokenId, uri) on the wrap contract.
func (etherman *Etherman) Wrap(
	ctx context.Context,
	auth *bind.TransactOpts,
	tokenId *big.Int,
	uri string,
) (*types.Transaction, error) {
	if auth == nil {
		return nil, ErrNilSigner
	}
	if tokenId == nil {
		return nil, ErrNilTokenId
	}

	opts := *auth
	opts.Context = ctx
	opts.Value = nil

	tx, err := etherman.wrapContract.Transact(&opts, NFTWrapper.MethodWrap, tokenId, uri)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"tx":      tx.Hash().Hex(),
		"tokenId": tokenId,
		"uri":     uri,
	}).Debug("wrap tx sent")

	return tx, nil
}

// WaitForTxReceipt blocks until tx is included in a block or ctx is done.
// A receipt of a reverted tx is returned together with ErrTxReverted.
func (etherman *Etherman) WaitForTxReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}

	receipt, err := bind.WaitMined(ctx, etherman.ethClient, tx)
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		logger.WithField("tx", tx.Hash().Hex()).Debug("tx reverted")
		return receipt, ErrTxReverted
	}

	return receipt, nil
}

// TryDecodeMintLog decodes vlog against the mint contract interface.
func (etherman *Etherman) TryDecodeMintLog(vlog *types.Log) (*DecodedEvent, bool) {
	return DecodeLog(etherman.mintABI, vlog)
}
