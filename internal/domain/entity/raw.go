package entity

// RawWallet is one wallet object exactly as the upstream API returned it.
// Field names vary across upstream schema revisions, so the payload is kept
// untyped until normalization resolves the known aliases.
type RawWallet map[string]any

// RawPosition is one untyped position object from the upstream API.
type RawPosition map[string]any

// RawTrade is one untyped trade fill from the upstream API.
type RawTrade map[string]any
