package compressor

import "io"

// passthroughWriter is used when no compression type is configured.
type passthroughWriter struct {
	io.Writer
}

func (passthroughWriter) Close() error {
	return nil
}

func NewPassthroughWriter(w io.Writer) CompressorWriter {
	return passthroughWriter{Writer: w}
}

func NewPassthroughReader(r io.Reader) CompressorReader {
	return io.NopCloser(r)
}
