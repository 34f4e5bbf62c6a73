package filepather

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

type DateTimeProvider interface {
	Date() string
	Hour() string
}

// FilePather names archive objects. Each one gets a fresh uuid filename and is
// spread over prefixVariety random prefixes fixed when the FilePather is created.
type FilePather struct {
	dtProvider     DateTimeProvider
	randomPrefixes []string
	fileExtension  string
}

func New(dtProvider DateTimeProvider, prefixVariety int, fileExtension string) *FilePather {
	if prefixVariety < 1 {
		panic("filepather: prefixVariety cannot be less than 1")
	}

	prefixes := make([]string, 0, prefixVariety)
	for i := 0; i < prefixVariety; i++ {
		prefixes = append(prefixes, uuid.New().String())
	}

	return &FilePather{
		dtProvider:     dtProvider,
		randomPrefixes: prefixes,
		fileExtension:  fileExtension,
	}
}

func (fp *FilePather) Filename() string {
	filename := uuid.New().String() + ".txt"

	if fp.fileExtension != "" {
		filename = filename + "." + fp.fileExtension
	}
	return filename
}

func (fp *FilePather) Prefix() string {
	picked := fp.randomPrefixes[0]
	if len(fp.randomPrefixes) > 1 {
		picked = fp.randomPrefixes[rand.IntN(len(fp.randomPrefixes))]
	}

	return fmt.Sprintf("date=%s/hour=%s/%s/", fp.dtProvider.Date(), fp.dtProvider.Hour(), picked)
}
