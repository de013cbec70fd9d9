// Command erldist-cli is a small operator tool exercising the library
// against a running PMD: registering a node, looking one up, listing
// all of them, and driving a single dial handshake.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/nspcc-dev/erldist/config"
	"github.com/nspcc-dev/erldist/epmd"
	"github.com/nspcc-dev/erldist/handshake"
	"github.com/nspcc-dev/erldist/nodename"
)

var configFlag = cli.StringFlag{
	Name:  "config, c",
	Usage: "path to the erldist config file",
	Value: "erldist.yml",
}

func main() {
	app := cli.NewApp()
	app.Name = "erldist-cli"
	app.Usage = "join the Erlang distribution protocol from the outside"
	app.ErrWriter = os.Stdout

	app.Commands = []cli.Command{
		{
			Name:   "register",
			Usage:  "register the configured node with PMD and hold the connection open",
			Flags:  []cli.Flag{configFlag},
			Action: cmdRegister,
		},
		{
			Name:      "lookup",
			Usage:     "look up one node's address by name",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{configFlag},
			Action:    cmdLookup,
		},
		{
			Name:   "list",
			Usage:  "list every node registered with PMD",
			Flags:  []cli.Flag{configFlag},
			Action: cmdList,
		},
		{
			Name:      "dial",
			Usage:     "perform a handshake against a peer and print the negotiated result",
			ArgsUsage: "<peer@host>",
			Flags:     []cli.Flag{configFlag},
			Action:    cmdDial,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return config.Config{}, nil, cli.NewExitError(err, 1)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return config.Config{}, nil, cli.NewExitError(err, 1)
	}
	return cfg, log, nil
}

func cmdRegister(ctx *cli.Context) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	flags, err := cfg.Node.ResolveFlags()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	local, err := nodename.Parse(cfg.Node.Name + "@" + cfg.Node.Host)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	client := epmd.NewClient(cfg.PMD.Address, log, epmd.WithCache(16))
	reg, err := client.Register(context.Background(), epmd.NodeEntry{
		Name:           local.String(),
		Port:           4370,
		Type:           nodename.TypeNormal,
		Protocol:       0,
		HighestVersion: cfg.Node.VersionHighResolved(),
		LowestVersion:  cfg.Node.VersionLowResolved(),
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer reg.Close()

	log.Info("registered", zap.Stringer("name", local), zap.Uint32("creation", uint32(reg.Creation)), zap.Stringer("flags", flags))
	fmt.Printf("registered %s, creation=%d; press Ctrl+C to exit\n", local, reg.Creation)
	select {}
}

func cmdLookup(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("expected exactly one node name argument", 1)
	}
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	name, err := nodename.Parse(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	client := epmd.NewClient(cfg.PMD.Address, log)
	entry, err := client.GetNode(context.Background(), name.String())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(entry)
}

func cmdList(ctx *cli.Context) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	client := epmd.NewClient(cfg.PMD.Address, log)
	names, err := client.GetNames(context.Background())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(names)
}

func cmdDial(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("expected exactly one peer name argument", 1)
	}
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	peer, err := nodename.Parse(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	local, err := nodename.Parse(cfg.Node.Name + "@" + cfg.Node.Host)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	flags, err := cfg.Node.ResolveFlags()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	client := epmd.NewClient(cfg.PMD.Address, log)
	entry, err := client.GetNode(context.Background(), peer.String())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if entry == nil {
		return cli.NewExitError(fmt.Sprintf("no such node: %s", peer), 1)
	}

	conn, err := (epmd.TCPDialer(fmt.Sprintf("%s:%d", cfg.Node.Host, entry.Port)))(context.Background())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer conn.Close()

	result, err := handshake.Dial(conn, nodename.Local{
		Name:     local,
		Flags:    flags,
		Creation: nodename.NewCreation(uint32(time.Now().Unix())),
	}, handshake.DialOptions{
		Cookie:   handshake.Cookie(cfg.Node.Cookie),
		Versions: handshake.VersionRange{Low: cfg.Node.VersionLowResolved(), High: cfg.Node.VersionHighResolved()},
		Flags:    flags,
		Log:      log,
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(struct {
		Peer  string `json:"peer"`
		Flags string `json:"flags"`
	}{Peer: result.Peer.Name.String(), Flags: result.Flags.String()})
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Println(string(out))
	return nil
}
