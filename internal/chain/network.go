package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PlaceholderAddress is the contract address shipped before deployment.
const PlaceholderAddress = "PASTE_CONTRACT_ADDRESS_HERE"

// ErrPlaceholderAddress is returned when the contract has not been configured yet.
var ErrPlaceholderAddress = errors.New("contract address is still the placeholder")

// Currency describes the native currency of a network.
type Currency struct {
	Name     string
	Symbol   string
	Decimals int
}

// Network holds the fixed parameters a wallet needs to add a chain.
type Network struct {
	ChainID    uint64
	ChainIDHex string
	Name       string
	Currency   Currency
}

// PharosTestnet is the network the collection is minted on. ChainIDHex keeps
// the upper-case spelling clients already compare against.
var PharosTestnet = Network{
	ChainID:    688688,
	ChainIDHex: "0xA8230",
	Name:       "PHAROS Testnet",
	Currency: Currency{
		Name:     "PHAROS",
		Symbol:   "PHRS",
		Decimals: 18,
	},
}

// CanonicalHexID returns the chain id the way JSON-RPC nodes report it.
func (n Network) CanonicalHexID() string {
	return hexutil.EncodeUint64(n.ChainID)
}

// CheckContractAddress reports whether addr looks like a deployed EVM
// contract address. Callers only log the result.
func CheckContractAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" || addr == PlaceholderAddress {
		return ErrPlaceholderAddress
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("contract address %q is not a valid hex address", addr)
	}
	if common.HexToAddress(addr) == (common.Address{}) {
		return fmt.Errorf("contract address %q is the zero address", addr)
	}
	return nil
}
