package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Enum for the connection status carried by a change notification.
type Status string

const (
	Connected    Status = "connected"
	Disconnected Status = "disconnected"
)

// Event is the connection-change notification a Provider delivers.
type Event struct {
	Status  Status
	Address common.Address // zero on disconnect
}

func (ev Event) String() string {
	return fmt.Sprintf("%s %s", ev.Status, ev.Address.Hex())
}

// Listener receives connection-change notifications.
type Listener interface {
	OnSessionChange(ev Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnSessionChange(ev Event) {
	f(ev)
}

// Session is the connected wallet: its address and a handle able to sign
// transactions for it. It lives between a connect and a disconnect only.
type Session struct {
	Address common.Address
	Signer  *bind.TransactOpts
}
