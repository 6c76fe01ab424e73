// Package codec implements the MessagePack encoder and decoder cores.
//
// The encoder walks an arbitrary value graph and appends MessagePack bytes
// to a pooled output buffer; the decoder parses a fully materialised byte
// buffer back into values. Both are strict: the encoder always selects the
// shortest wire form for a value, rejects anything it cannot represent,
// and bounds recursion so cyclic inputs fail instead of spinning; the
// decoder rejects malformed, truncated and reserved input and never
// returns a partial value.
//
// The exported surface is re-exported by the root mpack package, which is
// what most callers should import.
package codec
