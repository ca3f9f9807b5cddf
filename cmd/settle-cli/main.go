// Command settle-cli drives the auction pipeline directly against a ledger
// node, without a gateway in between.
//
// # Commands
//
// encrypt: Seal a single bid locally and print the envelope.
//
//	settle-cli encrypt --cluster-key=<hex> --auction=1 --bidder=<hex> --amount=7.5
//
// settle: Seal bids and a reserve, submit the computation, poll to
// finality, and print the verified result.
//
//	settle-cli settle --rpc=http://localhost:8899 --cluster=<hex> \
//	    --auction=1 --reserve=1.0 --bid=<hex>:7.5 --bid=<hex>:2.5
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/cmd/common"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/protocol"
	"github.com/shadowlabs-sol/shadow/settlement"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "encrypt":
		err = runEncrypt(os.Args[2:])
	case "settle":
		err = runSettle(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: settle-cli <encrypt|settle> [flags]")
	fmt.Println("  encrypt  seal one bid locally and print the envelope")
	fmt.Println("  settle   run a full settlement attempt against a ledger node")
}

func runEncrypt(args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	var (
		clusterKeyHex = fs.String("cluster-key", "", "MPC cluster public key (hex)")
		auctionID     = fs.Uint64("auction", 0, "Auction identifier")
		bidderHex     = fs.String("bidder", "", "Bidder address (hex)")
		amount        = fs.Float64("amount", 0, "Bid amount in whole units")
	)
	fs.Parse(args)

	clusterKey, err := crypto.NewPublicKeyFromString(*clusterKeyHex)
	if err != nil {
		return fmt.Errorf("cluster key: %w", err)
	}
	bidder, err := crypto.NewPublicKeyFromString(*bidderHex)
	if err != nil {
		return fmt.Errorf("bidder address: %w", err)
	}

	enc, err := auction.NewEncryptor(*auctionID, clusterKey)
	if err != nil {
		return err
	}
	bid, err := enc.EncryptBid(*amount, bidder)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(bid, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runSettle(args []string) error {
	fs := flag.NewFlagSet("settle", flag.ExitOnError)
	var bids bidFlags
	var (
		rpcEndpoint = fs.String("rpc", "", "Ledger node RPC endpoint")
		clusterAddr = fs.String("cluster", "", "Hex address of the MPC cluster account")
		auctionID   = fs.Uint64("auction", 0, "Auction identifier")
		reserve     = fs.Float64("reserve", 0, "Reserve price in whole units")
		logDebug    = fs.Bool("log-debug", false, "Log at debug level")
	)
	fs.Var(&bids, "bid", "Bid as <bidder-hex>:<amount>, repeatable")
	fs.Parse(args)

	if *rpcEndpoint == "" || *clusterAddr == "" {
		return fmt.Errorf("--rpc and --cluster are required")
	}
	if len(bids) == 0 {
		return fmt.Errorf("at least one --bid is required")
	}

	log := common.NewLogger(&common.Config{LogDebug: *logDebug})

	ledger, err := chain.NewRPCClient(&chain.RPCClientConfig{
		Endpoint: *rpcEndpoint,
		Log:      log,
	})
	if err != nil {
		return err
	}

	pcfg := protocol.DefaultConfig()
	pcfg.ClusterAddress = *clusterAddr

	settler, err := settlement.NewService(&settlement.ServiceConfig{
		Protocol: pcfg,
		Ledger:   ledger,
		Log:      log,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	clusterKey, err := settler.ClusterKey(ctx)
	if err != nil {
		return err
	}

	enc, err := auction.NewEncryptor(*auctionID, clusterKey)
	if err != nil {
		return err
	}

	req := &protocol.MPCComputationRequest{AuctionID: *auctionID}
	for _, b := range bids {
		sealed, err := enc.EncryptBid(b.amount, b.bidder)
		if err != nil {
			return fmt.Errorf("seal bid for %s: %w", b.bidder.String(), err)
		}
		req.EncryptedBids = append(req.EncryptedBids, sealed)
	}
	req.EncryptedReserve, err = enc.EncryptReserve(*reserve)
	if err != nil {
		return fmt.Errorf("seal reserve: %w", err)
	}

	result, err := settler.Settle(ctx, req,
		settlement.WithStatusCallback(func(st protocol.ComputationStatus) {
			fmt.Printf("  %s %d%% %s\n", st.State, st.Progress, st.Detail)
		}))
	if err != nil {
		return err
	}

	fmt.Printf("Winner:  %s\n", result.Winner.String())
	fmt.Printf("Amount:  %d raw (%.9f units)\n",
		result.WinningAmount, auction.DecodeAmount(result.WinningAmount, pcfg.Scale))
	return nil
}

// bidFlags accumulates repeated --bid flags.
type bidFlags []bidSpec

type bidSpec struct {
	bidder crypto.PublicKey
	amount float64
}

func (b *bidFlags) String() string {
	return fmt.Sprintf("%d bids", len(*b))
}

func (b *bidFlags) Set(value string) error {
	addr, amountStr, ok := strings.Cut(value, ":")
	if !ok {
		return fmt.Errorf("bid must be <bidder-hex>:<amount>, got %q", value)
	}
	bidder, err := crypto.NewPublicKeyFromString(addr)
	if err != nil {
		return fmt.Errorf("bidder address: %w", err)
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return fmt.Errorf("bid amount: %w", err)
	}
	*b = append(*b, bidSpec{bidder: bidder, amount: amount})
	return nil
}
