package sink

import (
	"context"
	"fmt"
	"path"

	"github.com/hupe1980/densealert/blobstore"
	"github.com/hupe1980/densealert/codec"
	"github.com/hupe1980/densealert/resource"
)

// DefaultPrefix is the blob name prefix used when BlobConfig.Prefix is empty.
const DefaultPrefix = "reports"

// timeLayout sorts lexicographically in time order.
const timeLayout = "20060102T150405.000000000Z"

// BlobConfig configures a Blob sink.
type BlobConfig struct {
	// Prefix is prepended to every blob name. Defaults to DefaultPrefix.
	Prefix string
	// Codec encodes reports. Defaults to codec.Default.
	Codec codec.Codec
	// Compression is applied after encoding. Defaults to CompressionNone.
	Compression Compression
	// Limiter, if set, paces the bytes written to the store.
	Limiter *resource.Controller
}

// Blob stores every report as one blob named <prefix>/<time>-<id>.<ext>.
type Blob struct {
	store blobstore.Store
	cfg   BlobConfig
}

// NewBlob creates a blob sink writing to store.
func NewBlob(store blobstore.Store, cfg BlobConfig) (*Blob, error) {
	if store == nil {
		return nil, fmt.Errorf("blob sink: nil store")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.Default
	}
	c, err := ParseCompression(string(cfg.Compression))
	if err != nil {
		return nil, fmt.Errorf("blob sink: %w", err)
	}
	cfg.Compression = c
	return &Blob{store: store, cfg: cfg}, nil
}

// Name returns the blob name r is stored under.
func (b *Blob) Name(r Report) string {
	file := fmt.Sprintf("%s-%s.%s%s",
		r.Time.UTC().Format(timeLayout), r.ID, codec.Extension(b.cfg.Codec), b.cfg.Compression.Extension())
	return path.Join(b.cfg.Prefix, file)
}

// Publish encodes r and writes it to the store.
func (b *Blob) Publish(ctx context.Context, r Report) error {
	data, err := Encode(r, b.cfg.Codec, b.cfg.Compression)
	if err != nil {
		return fmt.Errorf("blob sink: %w", err)
	}
	if err := b.cfg.Limiter.AcquireIO(ctx, len(data)); err != nil {
		return fmt.Errorf("blob sink: %w", err)
	}
	if err := b.store.Put(ctx, b.Name(r), data); err != nil {
		return fmt.Errorf("blob sink: %w", err)
	}
	return nil
}

// Load reads every stored report in name order, which is publication order.
func (b *Blob) Load(ctx context.Context) ([]Report, error) {
	names, err := b.store.List(ctx, b.cfg.Prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("blob sink: %w", err)
	}
	reports := make([]Report, 0, len(names))
	for _, name := range names {
		data, err := b.store.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("blob sink: %s: %w", name, err)
		}
		r, err := Decode(data, b.cfg.Codec, b.cfg.Compression)
		if err != nil {
			return nil, fmt.Errorf("blob sink: %s: %w", name, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Encode marshals r with c and compresses the result.
func Encode(r Report, c codec.Codec, compression Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return compress(data, compression)
}

// Decode reverses Encode.
func Decode(data []byte, c codec.Codec, compression Compression) (Report, error) {
	if c == nil {
		c = codec.Default
	}
	raw, err := decompress(data, compression)
	if err != nil {
		return Report{}, fmt.Errorf("decompress report: %w", err)
	}
	var r Report
	if err := c.Unmarshal(raw, &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
