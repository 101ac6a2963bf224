// Package nft builds the documents served by the minting backend: the chain
// configuration consumed by the minting page, the liveness payload, and the
// per-token metadata fetched by marketplace indexers.
package nft
