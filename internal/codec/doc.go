// Package codec converts epoch values to and from the bytes sent over the
// serial link.
//
// Two formats exist. The raw format is a bare 4-byte big-endian integer,
// validated on receipt with the trailing-zero scan that the deployed Sink
// firmware uses. The checked format wraps the same 4 bytes in a preamble,
// length byte and CRC-24Q so the receiver can find frame boundaries in a
// byte stream and reject corrupted input. Both ends must agree on the format.
package codec
