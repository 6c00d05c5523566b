package common

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

const etherDecimals = 18

// StringToPrivateKey parses a hex private key, with or without 0x prefix.
func StringToPrivateKey(s string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(Trim0xPrefix(s))
}

// ParseEther converts a decimal ether amount such as "0.01" to wei.
func ParseEther(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, ErrEmptyNumber
	}

	whole, frac, hasDot := strings.Cut(amount, ".")
	if hasDot && frac == "" && whole == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, amount)
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidNumber, amount, etherDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	if strings.ContainsAny(whole+frac, "+-") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, amount)
	}

	digits := whole + frac + strings.Repeat("0", etherDecimals-len(frac))
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, amount)
	}

	return wei, nil
}

// FormatEther renders wei as a decimal ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	q, r := new(big.Int).QuoRem(new(big.Int).Abs(wei), big.NewInt(params.Ether), new(big.Int))
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := fmt.Sprintf("%018s", r.String())
	return sign + q.String() + "." + strings.TrimRight(frac, "0")
}

// ExplorerTxLink builds a block explorer link for a transaction hash.
func ExplorerTxLink(explorerURL string, txHash ethcommon.Hash) string {
	return strings.TrimRight(explorerURL, "/") + "/tx/" + txHash.Hex()
}
