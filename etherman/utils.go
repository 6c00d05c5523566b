package etherman

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

func NewAuth(sk *ecdsa.PrivateKey, chainId *big.Int) *bind.TransactOpts {
	auth, err := bind.NewKeyedTransactorWithChainID(sk, chainId)
	if err != nil {
		return nil
	}
	return auth
}

func GenPrivateKeys(number int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, number)
	for i := 0; i < number; i++ {
		keys[i], _ = crypto.GenerateKey()
	}
	return keys
}

// DecodeLog tries to decode vlog as one of the events declared by
// contractABI. It reports false for anonymous events, unknown
// signatures and payloads that do not match the declared inputs.
func DecodeLog(contractABI *abi.ABI, vlog *types.Log) (*DecodedEvent, bool) {
	if contractABI == nil || vlog == nil || len(vlog.Topics) == 0 {
		return nil, false
	}

	event, err := contractABI.EventByID(vlog.Topics[0])
	if err != nil || event.Anonymous {
		return nil, false
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	// same signature hash is shared by events that differ only in
	// which arguments are indexed, e.g. ERC-20 and ERC-721 Transfer
	if len(vlog.Topics)-1 != len(indexed) {
		return nil, false
	}

	named := make(map[string]interface{}, len(event.Inputs))
	if err := event.Inputs.UnpackIntoMap(named, vlog.Data); err != nil {
		return nil, false
	}
	if err := abi.ParseTopicsIntoMap(named, indexed, vlog.Topics[1:]); err != nil {
		return nil, false
	}

	args := make([]interface{}, len(event.Inputs))
	for i, input := range event.Inputs {
		args[i] = named[input.Name]
	}

	return &DecodedEvent{
		Name:  event.RawName,
		Args:  args,
		Named: named,
	}, true
}
