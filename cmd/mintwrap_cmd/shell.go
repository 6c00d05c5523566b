package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/TEENet-io/mintwrap-go/cmd"
	mwcommon "github.com/TEENet-io/mintwrap-go/common"
)

// runShell is the interactive menu. Status lines of the minter are
// printed to out as they happen.
func runShell(ctx context.Context, mc *cmd.MinterConfig, in io.Reader, out io.Writer) error {
	m, err := cmd.NewMinter(mc, out, nil)
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Fprintln(out, strings.Repeat("=", 30))
	fmt.Fprintln(out, "Welcome to the NFT mint & wrap command line tool.")
	fmt.Fprintf(out, "Connected to: %s\n", mc.EthRpcUrl)
	fmt.Fprintf(out, "ChainId: %s\n", m.ChainId)
	fmt.Fprintf(out, "Mint contract address: %s\n", mc.MintContractAddr)
	fmt.Fprintf(out, "Wrap contract address: %s\n", mc.WrapContractAddr)
	fmt.Fprintf(out, "Mint price: %s\n", mc.MintPrice)

	scanner := bufio.NewScanner(in)
	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, text)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprintln(out, "What to do:")
		fmt.Fprintln(out, "1) Connect wallet")
		fmt.Fprintln(out, "2) Disconnect wallet")
		fmt.Fprintln(out, "3) Mint & wrap NFT")
		fmt.Fprintln(out, "4) Wrap existing NFT")
		fmt.Fprintln(out, "5) View status")
		fmt.Fprintln(out, "6) View balance")
		fmt.Fprintln(out, "q) Quit")

		input, ok := prompt("Type option and press Enter: ")
		if !ok {
			return nil
		}

		// failures are already on the status line
		switch input {
		case "1":
			_, _ = m.Connect(ctx)
		case "2":
			m.Disconnect()
		case "3":
			uri, ok := prompt("Token uri (empty for default): ")
			if !ok {
				return nil
			}
			_, _ = m.MintAndWrap(ctx, uri)
		case "4":
			id, ok := prompt("Token id: ")
			if !ok {
				return nil
			}
			tokenId, err := mwcommon.ParseTokenId(id)
			if err != nil {
				fmt.Fprintf(out, "Invalid token id: %s\n", err)
				break
			}
			uri, ok := prompt("Token uri (empty for default): ")
			if !ok {
				return nil
			}
			_, _ = m.Wrap(ctx, tokenId, uri)
		case "5":
			snapshot := m.Status()
			fmt.Fprintf(out, "Status: %s\n", snapshot.Text)
			fmt.Fprintf(out, "Mint enabled: %v\n", snapshot.MintEnabled)
			if snapshot.Address != "" {
				fmt.Fprintf(out, "Wallet: %s\n", snapshot.Address)
			}
		case "6":
			addr, balance, err := m.Balance(ctx)
			if err != nil {
				fmt.Fprintf(out, "Error getting balance: %s\n", err)
				break
			}
			fmt.Fprintf(out, "Your address: %s\n", addr.Hex())
			fmt.Fprintf(out, "Your balance: %s ether\n", mwcommon.FormatEther(balance))
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(out, "Unknown option, try again.")
		}
		fmt.Fprintln(out)
	}
}
