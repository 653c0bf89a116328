// Package storage defines the artifact store contract shared by the local
// filesystem backend and the gRPC backend.
package storage

import "github.com/ipfs/go-cid"

// Store is a minimal content-addressed store for sealed exam artifacts.
//
// Contract:
//   - Put MUST be idempotent.
//   - Stored artifacts MUST be immutable.
//   - IDs MUST be derived from the bytes written.
//   - Get MUST return ErrNotFound when the ID is absent.
type Store interface {
	Put(data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
