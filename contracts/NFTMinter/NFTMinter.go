// Package NFTMinter holds the interface of the deployed NFT mint contract.
// Only the ABI is needed since the contract is never deployed from here.
package NFTMinter

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// Deployed on BNB smart chain.
	DefaultAddress = "0x1BEe8d11f11260A4E39627EDfCEB345aAfeb57d9"

	// Fixed price paid by mintNFT(), in ether.
	DefaultMintPrice = "0.01"

	MethodMintNFT = "mintNFT"
	MethodApprove = "approve"
	EventTransfer = "Transfer"

	// Name of the token id field of Transfer, the third argument.
	TransferTokenIdField = "tokenId"
	TransferTokenIdIndex = 2
)

// NFTMinterMetaData contains all meta data concerning the NFTMinter contract.
var NFTMinterMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[],"name":"mintNFT","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"approve","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":"Transfer","type":"event"}
]`,
}

func DefaultContractAddress() common.Address {
	return common.HexToAddress(DefaultAddress)
}
