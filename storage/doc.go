// Package storage implements sealed factory-seed persistence. The seed
// never leaves the process unsealed: backends move an opaque sealed blob
// with an integrity frame, and unsealing happens only in the provisioning
// path right before the derivation engine is built.
//
// Backends are created from location URIs by the factory:
//
//   - file:///var/lib/airaccount/seed - local filesystem, secure store
//     emulation outside real hardware
//   - vault://host:8200/secret/airaccount?token=... - HashiCorp Vault KV v2
//   - s3://KEY:SECRET@bucket/path?region=us-east-1 - Amazon S3 or compatible
//   - ipfs://host:5001/?cid=Qm... - IPFS node, fetch pinned by CID
package storage
