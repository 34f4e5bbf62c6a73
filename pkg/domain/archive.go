package domain

// WorkUnit is a single object to be written to an archive storage.
type WorkUnit struct {
	Filename string
	Prefix   string
	Data     []byte
}

type UploadResult struct {
	Bucket      string
	Region      string
	Path        string
	URL         string
	SizeInBytes int
}
