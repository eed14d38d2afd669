package core

// LogBlob is the raw log of one build report as read from the data source.
// It is never modified after it has been read.
type LogBlob struct {
	SysName  string
	Snapshot string
	Stage    string
	Status   string
	Branch   string
	Commit   string
	Log      string
}

// Chunk is one named section of a LogBlob.
// It carries the identifiers of the report it came from and is enriched
// with an embedding (or a failure message) once its batch has been processed.
type Chunk struct {
	Key       int       `json:"key"`
	SysName   string    `json:"sysname"`
	Snapshot  string    `json:"snapshot"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Filename  string    `json:"filename"`
	Commit    string    `json:"commit"`
	Branch    string    `json:"branch"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"` // populated by a successful batch
	Error     string    `json:"error,omitempty"`     // populated by a failed batch
}

// NewChunk creates a chunk for a section of the given blob.
// The key is left at zero; it is assigned by whoever owns the collection.
func NewChunk(blob *LogBlob, filename, text string) *Chunk {
	return &Chunk{
		SysName:  blob.SysName,
		Snapshot: blob.Snapshot,
		Status:   blob.Status,
		Stage:    blob.Stage,
		Filename: filename,
		Commit:   blob.Commit,
		Branch:   blob.Branch,
		Text:     text,
	}
}

// Embedded reports whether the chunk has been successfully vectorized.
func (c *Chunk) Embedded() bool {
	return len(c.Embedding) > 0 && c.Error == ""
}

// Failed reports whether the batch containing the chunk failed.
func (c *Chunk) Failed() bool {
	return c.Error != ""
}
