package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/TEENet-io/mintwrap-go/cmd"
	mwcommon "github.com/TEENet-io/mintwrap-go/common"
	"github.com/TEENet-io/mintwrap-go/logconfig"
	"github.com/TEENet-io/mintwrap-go/reporter"
	"github.com/TEENet-io/mintwrap-go/sequencer"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "configuration file",
		EnvVars: []string{cmd.ENV_CONFIG_FILE_PATH},
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, production or any logrus level; overrides LOG_LEVEL",
	}
	uriFlag = &cli.StringFlag{
		Name:  "uri",
		Usage: "token uri of the wrapped NFT; DEFAULT_TOKEN_URI when empty",
	}
	idFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "token id to wrap, decimal or 0x hex",
		Required: true,
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// a sent tx is still awaited; a second signal kills the process
		stop()
	}()

	if err := run(ctx, os.Stdin, os.Stdout, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	v := viper.GetViper()

	app := cli.NewApp()
	app.Name = "mintwrap"
	app.Usage = "Mint an NFT and wrap it in one go."
	app.Writer = out
	app.Flags = []cli.Flag{configFlag, logLevelFlag}
	app.Before = func(c *cli.Context) error {
		if err := cmd.InitializeViper(v, c.String(configFlag.Name)); err != nil {
			return err
		}
		level := v.GetString("LOG_LEVEL")
		if c.IsSet(logLevelFlag.Name) {
			level = c.String(logLevelFlag.Name)
		}
		return logconfig.ConfigFromLevel(level)
	}
	app.Commands = []*cli.Command{
		{
			Name:  "serve",
			Usage: "serve the http control surface until interrupted",
			Action: func(c *cli.Context) error {
				return cmd.StartServerAndWait(cmd.PrepareServerConfig(v))
			},
		},
		{
			Name:  "shell",
			Usage: "interactive menu",
			Action: func(c *cli.Context) error {
				return runShell(c.Context, cmd.PrepareMinterConfig(v), in, out)
			},
		},
		{
			Name:  "mint",
			Usage: "connect, mint an NFT and wrap it",
			Flags: []cli.Flag{uriFlag},
			Action: func(c *cli.Context) error {
				return withMinter(c.Context, v, out, func(m *cmd.Minter) error {
					conf, err := m.MintAndWrap(c.Context, c.String(uriFlag.Name))
					if err != nil {
						return err
					}
					printConfirmation(out, m, conf)
					return nil
				})
			},
		},
		{
			Name:  "wrap",
			Usage: "connect and wrap an NFT minted before",
			Flags: []cli.Flag{idFlag, uriFlag},
			Action: func(c *cli.Context) error {
				tokenId, err := mwcommon.ParseTokenId(c.String(idFlag.Name))
				if err != nil {
					return err
				}
				return withMinter(c.Context, v, out, func(m *cmd.Minter) error {
					conf, err := m.Wrap(c.Context, tokenId, c.String(uriFlag.Name))
					if err != nil {
						return err
					}
					printConfirmation(out, m, conf)
					return nil
				})
			},
		},
		{
			Name:  "status",
			Usage: "show the status line of a running server",
			Action: func(c *cli.Context) error {
				snapshot, err := reporter.NewHttpReader(v.GetString("HTTP_IP"), v.GetString("HTTP_PORT")).GetStatus()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\nmint enabled: %v\nwallet: %s\n", snapshot.Text, snapshot.MintEnabled, snapshot.Address)
				return nil
			},
		},
	}

	return app.RunContext(ctx, args)
}

// withMinter runs fn with a connected minter and closes it afterwards.
func withMinter(ctx context.Context, v *viper.Viper, out io.Writer, fn func(m *cmd.Minter) error) error {
	m, err := cmd.NewMinter(cmd.PrepareMinterConfig(v), out, nil)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, err := m.Connect(ctx); err != nil {
		return err
	}
	defer m.Disconnect()

	return fn(m)
}

func printConfirmation(out io.Writer, m *cmd.Minter, conf *sequencer.WrapConfirmation) {
	fmt.Fprintf(out, "Token id: %s\n", conf.TokenId)
	fmt.Fprintf(out, "Token uri: %s\n", conf.URI)
	if conf.MintTxHash != (ethcommon.Hash{}) {
		fmt.Fprintf(out, "Mint tx: %s\n", mwcommon.ExplorerTxLink(m.Config.ExplorerUrl, conf.MintTxHash))
	}
	fmt.Fprintf(out, "Wrap tx: %s\n", mwcommon.ExplorerTxLink(m.Config.ExplorerUrl, conf.WrapTxHash))
	logger.WithField("tokenId", conf.TokenId).Debug("done")
}
