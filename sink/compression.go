package sink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how encoded reports are compressed before storage.
type Compression string

const (
	// CompressionNone stores the encoded report as is.
	CompressionNone Compression = "none"
	// CompressionZSTD uses zstd (better ratio).
	CompressionZSTD Compression = "zstd"
	// CompressionLZ4 uses LZ4 block compression (faster).
	CompressionLZ4 Compression = "lz4"
)

// ParseCompression parses a compression name. The empty string is none.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZSTD, CompressionLZ4:
		return Compression(s), nil
	default:
		return "", fmt.Errorf("unknown compression %q", s)
	}
}

// Extension returns the file name suffix for c, including the dot, or "".
func (c Compression) Extension() string {
	switch c {
	case CompressionZSTD:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed payloads carry a header:
// [UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 marks data stored uncompressed.
const headerSize = 8

var errShortPayload = errors.New("compressed payload too small")

func compress(data []byte, c Compression) ([]byte, error) {
	var packed []byte
	switch c {
	case CompressionNone, "":
		return data, nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}

	out := make([]byte, headerSize, headerSize+max(len(packed), len(data)))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	// Incompressible input is stored raw.
	if len(packed) == 0 || len(packed) >= len(data) {
		return append(out, data...), nil
	}
	binary.LittleEndian.PutUint32(out[4:], uint32(len(packed)))
	return append(out, packed...), nil
}

func decompress(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone || c == "" {
		return data, nil
	}
	if len(data) < headerSize {
		return nil, errShortPayload
	}
	size := binary.LittleEndian.Uint32(data[0:])
	packed := binary.LittleEndian.Uint32(data[4:])
	body := data[headerSize:]

	if packed == 0 {
		if uint32(len(body)) < size {
			return nil, errShortPayload
		}
		return body[:size], nil
	}
	if uint32(len(body)) < packed {
		return nil, errShortPayload
	}
	body = body[:packed]

	out := make([]byte, size)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}
