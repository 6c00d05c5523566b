package common

import (
	"errors"
	"math/big"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyNumber   = errors.New("empty number")
	ErrInvalidNumber = errors.New("invalid number")
)

// Trim 0x or 0X prefix off the string.
func Trim0xPrefix(str string) string {
	s := strings.TrimPrefix(str, "0x")
	return strings.TrimPrefix(s, "0X")
}

func Prepend0xPrefix(str string) string {
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		return str
	}
	return "0x" + str
}

func Has0xPrefix(str string) bool {
	return strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X")
}

// Shorten shortens a hex string so that the head keeps n characters after
// the 0x prefix, the tail keeps m characters and the rest is replaced with "..."
func Shorten(hexStr string, n, m int) string {
	str := Trim0xPrefix(hexStr)

	if len(str) <= n+m {
		return Prepend0xPrefix(str)
	}
	return Prepend0xPrefix(str[:n] + "..." + str[len(str)-m:])
}

// ShortAddress renders an address the way wallets label it: 0x1234...abcd
func ShortAddress(addr ethcommon.Address) string {
	return Shorten(addr.Hex(), 4, 4)
}

// ParseTokenId parses a token id typed by a user, decimal or 0x-prefixed hex.
func ParseTokenId(str string) (*big.Int, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, ErrEmptyNumber
	}

	var (
		id *big.Int
		ok bool
	)
	if Has0xPrefix(str) {
		id, ok = new(big.Int).SetString(Trim0xPrefix(str), 16)
	} else {
		id, ok = new(big.Int).SetString(str, 10)
	}
	if !ok || id.Sign() < 0 {
		return nil, ErrInvalidNumber
	}

	return id, nil
}
