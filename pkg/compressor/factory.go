package compressor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/jademcosta/syncbatcher/pkg/config"
)

const (
	GzipType    = "gzip"
	ZlibType    = "zlib"
	DeflateType = "deflate"
	ZstdType    = "zstd"
	SnappyType  = "snappy"
)

var extensions = map[string]string{
	GzipType:    "gz",
	ZlibType:    "zlib",
	DeflateType: "deflate",
	ZstdType:    "zst",
	SnappyType:  "snappy",
}

type CompressorReader interface {
	io.ReadCloser
}

type CompressorWriter interface {
	io.WriteCloser
}

// Extension is the file extension for data compressed with compressionType,
// empty when there is no compression.
func Extension(compressionType string) string {
	return extensions[strings.ToLower(compressionType)]
}

// TypeFromExtension is the inverse of Extension.
func TypeFromExtension(extension string) string {
	for compressionType, ext := range extensions {
		if ext == extension {
			return compressionType
		}
	}
	return ""
}

func NewReader(conf *config.CompressionConfig, reader io.Reader) (CompressorReader, error) {

	var compressor CompressorReader
	var err error
	switch strings.ToLower(conf.Type) {
	case GzipType:
		compressor, err = gzip.NewReader(reader)
	case ZlibType:
		compressor, err = zlib.NewReader(reader)
	case DeflateType:
		compressor = flate.NewReader(reader)
	case ZstdType:
		var decoder *zstd.Decoder
		decoder, err = zstd.NewReader(reader)
		if err == nil {
			compressor = decoder.IOReadCloser()
		}
	case SnappyType:
		compressor = io.NopCloser(s2.NewReader(reader))
	case "":
		compressor = NewPassthroughReader(reader)
	default:
		err = fmt.Errorf("invalid compression type %s", conf.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating %s reader: %w", conf.Type, err)
	}

	return compressor, nil
}

func NewWriter(conf *config.CompressionConfig, writer io.Writer) (CompressorWriter, error) {

	var compressor CompressorWriter
	var err error

	levelSet := conf.Level != ""
	level := 0
	if levelSet {
		level, err = strconv.Atoi(conf.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid compression level %s: %w", conf.Level, err)
		}
	}

	switch strings.ToLower(conf.Type) {
	case GzipType:
		if levelSet {
			compressor, err = gzip.NewWriterLevel(writer, level)
		} else {
			compressor = gzip.NewWriter(writer)
		}
	case ZlibType:
		if levelSet {
			compressor, err = zlib.NewWriterLevel(writer, level)
		} else {
			compressor = zlib.NewWriter(writer)
		}
	case DeflateType:
		if levelSet {
			compressor, err = flate.NewWriter(writer, level)
		} else {
			compressor, err = flate.NewWriter(writer, flate.DefaultCompression)
		}
	case ZstdType:
		opts := []zstd.EOption{}
		if levelSet {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		compressor, err = zstd.NewWriter(writer, opts...)
	case SnappyType:
		// level does not apply, the stream is kept readable by any snappy reader
		compressor = s2.NewWriter(writer, s2.WriterSnappyCompat())
	case "":
		compressor = NewPassthroughWriter(writer)
	default:
		err = fmt.Errorf("invalid compression type %s", conf.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating %s writer: %w", conf.Type, err)
	}

	return compressor, nil
}
