// Package pbd decodes Vaa3D "pack-bits plus difference" (PBD) compressed
// 16-bit sample streams.
//
// A PBD stream is a sequence of runs. Each run starts with one control byte
// whose value selects the run kind and its sample count:
//
//	0-31     literal     c+1 samples follow verbatim, 2 bytes each
//	32-79    difference  c-31 samples follow as packed 3-bit deltas
//	80-222   reserved    rejected with ErrUnsupportedCode
//	223-255  repeat      one sample follows and is repeated c-222 times
//
// Difference deltas are packed MSB-first with no padding between symbols.
// Each symbol v maps to the delta v for v < 5 and 4-v otherwise, and is added
// to the previous sample. Bits left over in the last byte of a difference run
// are discarded; the next control byte always starts on a byte boundary.
//
// Reader exposes the decoded samples as a plain byte stream in the byte order
// of the volume, so callers can treat compressed and uncompressed data alike.
// Reads of any size, including odd sizes that split a sample, reproduce the
// same bytes.
package pbd
