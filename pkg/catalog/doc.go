// Package catalog holds the append-only table of host variables known to the
// bridge.
//
// The host issues variable handles densely from 0 but does not say how many
// exist. Discovery therefore queries handles one by one, starting at the
// current catalog size, until the host reports that a handle does not exist.
// The catalog is an arena indexed by handle: it only ever grows, and its
// handles always form the contiguous prefix [0, Len()).
//
// A discovery pass that found new variables (or was asked to) is followed by
// a full list dump to the consumer, one name per response line, bracketed by
// the wire.ListStart and wire.ListEnd sentinels.
package catalog
