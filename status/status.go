// Package status turns the progress of wallet and mint actions into the
// text and style a user sees.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	mwcommon "github.com/TEENet-io/mintwrap-go/common"
)

type Phase string

const (
	Idle         Phase = "idle"
	Connecting   Phase = "connecting"
	Connected    Phase = "connected"
	Disconnected Phase = "disconnected"
	NotConnected Phase = "not_connected"
	Minting      Phase = "minting"
	Minted       Phase = "minted"
	Wrapping     Phase = "wrapping"
	Succeeded    Phase = "succeeded"
	Failed       Phase = "failed"
)

// Coarse style of a status line.
type Class string

const (
	Info    Class = "info"
	Success Class = "success"
	Error   Class = "error"
)

const defaultFailureReason = "Something went wrong"

type Event struct {
	Phase Phase

	// Detail is the explorer link for Minted
	// and the failure reason for Failed.
	Detail string
}

type View struct {
	Phase Phase  `json:"phase"`
	Text  string `json:"text"`
	Class Class  `json:"class"`
}

// Render maps an event to what is shown. It keeps no state.
func Render(ev Event) View {
	v := View{Phase: ev.Phase, Class: Info}

	switch ev.Phase {
	case Idle:
		v.Text = ""
	case Connecting:
		v.Text = "⏳ Connecting wallet..."
	case Connected:
		v.Text = "🟢 Wallet connected"
		v.Class = Success
	case Disconnected:
		v.Text = "🔴 Wallet Not Connected"
		v.Class = Error
	case NotConnected:
		v.Text = "Connect your wallet first!"
		v.Class = Error
	case Minting:
		v.Text = "⏳ Minting..."
	case Minted:
		v.Text = fmt.Sprintf("✅ Minted! TX: %s", ev.Detail)
		v.Class = Success
	case Wrapping:
		v.Text = "⏳ Wrapping NFT..."
	case Succeeded:
		v.Text = "✅ Wrapped NFT!"
		v.Class = Success
	case Failed:
		reason := ev.Detail
		if reason == "" {
			reason = defaultFailureReason
		}
		v.Text = "❌ " + reason
		v.Class = Error
	default:
		v.Text = string(ev.Phase)
	}

	return v
}

// Snapshot is everything a user surface displays at one moment.
type Snapshot struct {
	View
	MintEnabled bool   `json:"mint_enabled"`
	Address     string `json:"address"`
}

// Presenter remembers the last view shown together with the state of the
// mint control and the wallet label. Lines are echoed to out when set.
type Presenter struct {
	out io.Writer

	mu          sync.Mutex
	last        View
	mintEnabled bool
	address     string
}

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{
		out:  out,
		last: Render(Event{Phase: Idle}),
	}
}

func (p *Presenter) Show(ev Event) {
	v := Render(ev)

	p.mu.Lock()
	p.last = v
	p.mu.Unlock()

	if p.out != nil && v.Text != "" {
		fmt.Fprintln(p.out, v.Text)
	}
}

// SetMintEnabled enables or disables the mint control.
func (p *Presenter) SetMintEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mintEnabled = enabled
}

// SetAccount updates the wallet label; the zero address clears it.
func (p *Presenter) SetAccount(addr common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if addr == (common.Address{}) {
		p.address = ""
		return
	}
	p.address = mwcommon.ShortAddress(addr)
}

func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		View:        p.last,
		MintEnabled: p.mintEnabled,
		Address:     p.address,
	}
}
