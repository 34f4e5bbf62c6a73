package adapters

import (
	"path/filepath"

	"github.com/jademcosta/syncbatcher/pkg/compressor"
)

// ContentEncodingFromFileName returns the compression a file was written with,
// judged by its extension. Empty when the file is not compressed.
func ContentEncodingFromFileName(fileName string) string {
	return compressor.TypeFromExtension(getExtension(fileName))
}

func getExtension(fileName string) string {
	ext := filepath.Ext(fileName)
	if len(ext) > 0 {
		return ext[1:] // remove the dot
	}
	return ""
}
