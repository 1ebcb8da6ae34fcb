// Package integration contains the marketplace integration context.
//
// Key concepts:
//   - Connector: port for pulling raw orders from a marketplace (Trendyol, Ikas)
//   - Payload: a decoded marketplace document, kept opaque outside this package
//   - CanonicalOrder: a marketplace order mapped onto the order line model
//   - SyncResult: typed outcome of a single sync run
//
// Canonicalization is pure: no I/O happens here. Photo lookups are described
// on the candidate and performed by the caller.
package integration
