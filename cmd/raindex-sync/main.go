// Command raindex-sync runs the off-chain sync engine against one
// orderbook, the way the teacher's own cmd/geth wires flags straight into
// long-running node subsystems via urfave/cli/v2.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/rainlanguage/raindex-go/adapters/ethrpc"
	"github.com/rainlanguage/raindex-go/adapters/memstore"
	"github.com/rainlanguage/raindex-go/adapters/pebbledb"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/logfetcher"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/syncengine"
	"github.com/urfave/cli/v2"
)

var (
	rpcFlag = &cli.StringFlag{
		Name:     "rpc-endpoint",
		Usage:    "JSON-RPC endpoint of the chain the orderbook is deployed on",
		Required: true,
	}
	orderbookFlag = &cli.StringFlag{
		Name:     "orderbook-address",
		Usage:    "address of the orderbook contract to sync",
		Required: true,
	}
	chainIDFlag = &cli.Uint64Flag{
		Name:  "chain-id",
		Usage: "chain ID the orderbook is deployed on",
	}
	deploymentBlockFlag = &cli.Uint64Flag{
		Name:  "deployment-block",
		Usage: "block the orderbook was deployed at; the sync window's floor",
	}
	finalityDepthFlag = &cli.Uint64Flag{
		Name:  "finality-depth",
		Value: 15,
		Usage: "blocks to hold back from the chain head before syncing them",
	}
	dbDirFlag = &cli.StringFlag{
		Name:  "db-dir",
		Usage: "pebble database directory; empty runs against an in-memory store",
	}
	pollIntervalFlag = &cli.DurationFlag{
		Name:  "poll-interval",
		Value: 12 * time.Second,
		Usage: "delay between sync cycles",
	}
	onceFlag = &cli.BoolFlag{
		Name:  "once",
		Usage: "run a single sync cycle and exit instead of polling forever",
	}
)

func main() {
	app := &cli.App{
		Name:  "raindex-sync",
		Usage: "sync a Raindex orderbook's on-chain log history into a local store",
		Flags: []cli.Flag{
			rpcFlag, orderbookFlag, chainIDFlag, deploymentBlockFlag,
			finalityDepthFlag, dbDirFlag, pollIntervalFlag, onceFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Crit("raindex-sync: fatal", "err", err)
	}
}

func run(c *cli.Context) error {
	ctx := c.Context

	client, err := ethrpc.Dial(ctx, c.String(rpcFlag.Name))
	if err != nil {
		return fmt.Errorf("dial rpc: %w", err)
	}
	defer client.Close()

	id := orderbook.ID{
		ChainID:          uint32(c.Uint64(chainIDFlag.Name)),
		OrderbookAddress: common.HexToAddress(c.String(orderbookFlag.Name)),
	}
	deploymentBlock := c.Uint64(deploymentBlockFlag.Name)
	finalityDepth := c.Uint64(finalityDepthFlag.Name)

	store := memstore.New(deploymentBlock, finalityDepth)

	dbExecutor, closeDB, err := openExecutor(c.String(dbDirFlag.Name), store)
	if err != nil {
		return err
	}
	if closeDB != nil {
		defer closeDB()
	}

	status := make(chan string, 16)
	go func() {
		for msg := range status {
			log.Info("raindex-sync: status", "phase", msg)
		}
	}()

	adapters := syncengine.Adapters{
		Events:    client,
		Bootstrap: store,
		Window:    store,
		Fetcher:   logfetcher.New(client, logfetcher.FetchConfig{}),
		Decoder:   eventdecoder.NewDecoder(),
		Tokens:    store,
		DB:        dbExecutor,
		Export:    store,
		Status:    status,
	}

	params := syncengine.Params{
		ID:              id,
		FinalityDepth:   finalityDepth,
		DeploymentBlock: deploymentBlock,
	}

	for {
		res, err := syncengine.Cycle(ctx, adapters, params)
		if err != nil {
			close(status)
			return fmt.Errorf("sync cycle: %w", err)
		}
		log.Info("raindex-sync: cycle complete",
			"start_block", res.StartBlock, "target_block", res.TargetBlock,
			"fetched_logs", res.FetchedLogs, "decoded_events", res.DecodedEvents)

		if c.Bool(onceFlag.Name) {
			close(status)
			return nil
		}
		select {
		case <-ctx.Done():
			close(status)
			return ctx.Err()
		case <-time.After(c.Duration(pollIntervalFlag.Name)):
		}
	}
}

// openExecutor returns a pebble-backed executor when db-dir is set, or the
// in-memory store's own Executor otherwise (dry-run mode).
func openExecutor(dir string, fallback *memstore.Store) (dbexec.Executor, func(), error) {
	if dir == "" {
		return fallback, nil, nil
	}
	pdb, err := pebbledb.Open(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open pebble db: %w", err)
	}
	return pdb, func() { pdb.Close() }, nil
}
