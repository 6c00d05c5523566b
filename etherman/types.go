package etherman

import (
	"fmt"
	"math/big"
)

// DecodedEvent is a receipt log decoded against a known contract interface.
type DecodedEvent struct {
	Name string

	// Args holds the event arguments in ABI input order,
	// indexed arguments included.
	Args []interface{}

	// Named holds the same arguments keyed by their ABI name.
	// Unnamed inputs are keyed arg0, arg1, ...
	Named map[string]interface{}
}

func (ev *DecodedEvent) String() string {
	return fmt.Sprintf("%s%v", ev.Name, ev.Args)
}

// BigIntArg looks up an integer argument by name and falls back to the
// argument at position idx when the name is absent.
func (ev *DecodedEvent) BigIntArg(name string, idx int) (*big.Int, bool) {
	if v, ok := ev.Named[name]; ok {
		if n, ok := v.(*big.Int); ok && n != nil {
			return n, true
		}
	}

	if idx < 0 || idx >= len(ev.Args) {
		return nil, false
	}
	n, ok := ev.Args[idx].(*big.Int)
	if !ok || n == nil {
		return nil, false
	}
	return n, true
}
