// Package abitset sends and receives bitsets over QUIC streams.
//
// The receiver must already know the bitset's length;
// only the backing words travel on the wire.
// The adaptive codec prefixes a one-byte header
// choosing between raw words and snappy-compressed words,
// whichever is smaller.
//
// Every codec method takes a timeout for the stream's deadline.
// A non-positive timeout leaves the stream's existing deadline in place.
package abitset
