package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Snapshot is what the RPC endpoint reported at probe time.
type Snapshot struct {
	ChainID     *big.Int
	BlockNumber uint64
}

// ErrChainMismatch is returned when the RPC endpoint serves a different chain.
var ErrChainMismatch = errors.New("rpc endpoint reports an unexpected chain id")

// reader mirrors the subset of ethclient.Client used by the probe.
type reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

type dialFunc func(ctx context.Context, rawURL string) (reader, error)

func dialEthclient(ctx context.Context, rawURL string) (reader, error) {
	return ethclient.DialContext(ctx, rawURL)
}

// Prober performs read-only checks against a JSON-RPC endpoint. It never
// touches contracts.
type Prober struct {
	dial dialFunc
}

// NewProber returns a prober backed by go-ethereum's ethclient.
func NewProber() *Prober {
	return &Prober{dial: dialEthclient}
}

// Snapshot dials rpcURL and reads eth_chainId and eth_blockNumber.
func (p *Prober) Snapshot(ctx context.Context, rpcURL string) (Snapshot, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return Snapshot{}, errors.New("rpc url is empty")
	}

	client, err := p.dial(ctx, rpcURL)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch chain id: %w", err)
	}
	height, err := client.BlockNumber(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch block number: %w", err)
	}
	return Snapshot{ChainID: id, BlockNumber: height}, nil
}

// Verify checks that rpcURL serves network n.
func (p *Prober) Verify(ctx context.Context, rpcURL string, n Network) (Snapshot, error) {
	snap, err := p.Snapshot(ctx, rpcURL)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.ChainID == nil || !snap.ChainID.IsUint64() || snap.ChainID.Uint64() != n.ChainID {
		return snap, fmt.Errorf("%w: got %s, want %s", ErrChainMismatch, hexID(snap.ChainID), n.CanonicalHexID())
	}
	return snap, nil
}

func hexID(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return "0x" + n.Text(16)
}
