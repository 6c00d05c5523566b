// Package NFTWrapper holds the interface of the deployed NFT wrap contract.
package NFTWrapper

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultAddress = "0xa069fd4ed3be5262166a5392ee31467951822206"

	// URI given to a wrapped token when the user does not supply one.
	DefaultTokenURI = "ipfs://bafybeig6wisourp6cvqqczwyfa6nyz7jwbsbbgbilz3d3m2maenxnzvxui"

	MethodWrap = "wrap"
)

// NFTWrapperMetaData contains all meta data concerning the NFTWrapper contract.
var NFTWrapperMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"internalType":"uint256","name":"internalTokenId","type":"uint256"},{"internalType":"string","name":"newTokenURI","type":"string"}],"name":"wrap","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`,
}

func DefaultContractAddress() common.Address {
	return common.HexToAddress(DefaultAddress)
}
