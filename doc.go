// Package blobvault provides URI-addressed blob storage over interchangeable
// backends.
//
// A Provider stores opaque byte streams and hands back an absolute blob URI
// rooted at the provider's configured base URI. Callers never construct blob
// URIs themselves; they keep the URI returned by CreateBlob and present it to
// ReadBlob or DeleteBlob later. All providers expose the same error taxonomy
// (ErrInvalidArgument, ErrNotFound, ErrCollision), so callers are insulated
// from backend-specific failure types.
//
// # Built-in Providers
//
//   - FSProvider: a local directory tree with atomic creation (temp file +
//     rename), retrying deletion, and empty-directory reclamation
//   - ObjectProvider: remote object stores behind the narrow ObjectClient
//     contract (adapters in the minio and s3 subpackages; MemObjects for tests)
//
// # Quick Start
//
//	p, _ := blobvault.NewFSProvider(blobvault.FSConfig{RootPath: "./data"})
//
//	uri, _ := p.CreateBlob(ctx, strings.NewReader("hello"), "txt")
//
//	rc, _ := p.ReadBlob(ctx, uri)
//	defer rc.Close()
//
//	existed, _ := p.DeleteBlob(ctx, uri)
//
// Providers hold no mutable per-call state and are safe for concurrent use.
package blobvault
