// Package rootless provides the RootlessNet protocol core: self-sovereign
// identities, signed content-addressed records and end-to-end encrypted
// direct messages.
//
// The functions in this package are the narrow entry points meant for
// embedding. The subpackages expose the full API: crypto for primitives,
// identity for DIDs and key export, content for signed records, messaging
// for envelopes, and service for the local daemon protocol.
package rootless
