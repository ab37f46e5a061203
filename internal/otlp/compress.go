package otlp

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/gzip" // register gzip compressor
)

func init() {
	encoding.RegisterCompressor(&zstdCompressor{})
}

// zstdCompressor implements grpc encoding.Compressor for zstd, with pooled
// encoders and decoders.
type zstdCompressor struct{}

func (*zstdCompressor) Name() string {
	return "zstd"
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		w, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return w
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		r, _ := zstd.NewReader(nil)
		return r
	},
}

type pooledZstdWriter struct {
	*zstd.Encoder
}

func (p *pooledZstdWriter) Close() error {
	err := p.Encoder.Close()
	p.Encoder.Reset(nil)
	zstdEncoderPool.Put(p.Encoder)
	return err
}

type pooledZstdReader struct {
	*zstd.Decoder
}

func (p *pooledZstdReader) Read(b []byte) (int, error) {
	n, err := p.Decoder.Read(b)
	if err == io.EOF {
		_ = p.Decoder.Reset(nil)
		zstdDecoderPool.Put(p.Decoder)
	}
	return n, err
}

func (*zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	enc := zstdEncoderPool.Get().(*zstd.Encoder)
	enc.Reset(w)
	return &pooledZstdWriter{Encoder: enc}, nil
}

func (*zstdCompressor) Decompress(r io.Reader) (io.Reader, error) {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	if err := dec.Reset(r); err != nil {
		return nil, err
	}
	return &pooledZstdReader{Decoder: dec}, nil
}
