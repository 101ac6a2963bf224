// Package chain holds the PHAROS network parameters served to the minting
// page, EVM address checks for the configured contract, and a read-only
// JSON-RPC probe used at startup to confirm the configured endpoint serves
// the expected chain.
package chain
