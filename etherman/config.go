package etherman

import "github.com/ethereum/go-ethereum/common"

type Config struct {
	// URL is the URL of the Ethereum node
	URL string

	// MintContractAddress is the deployed NFT mint contract
	MintContractAddress common.Address

	// WrapContractAddress is the deployed NFT wrap contract
	WrapContractAddress common.Address
}
