package manifest

// SummaryManifest is the run report written by --report.
// It gives a lightweight overview of every discovered image and what
// happened to it, without having to inspect the output directory.
type SummaryManifest struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	GeneratedAt string         `json:"generated_at" yaml:"generated_at"`
	Keyword     string         `json:"keyword" yaml:"keyword"`
	Directory   string         `json:"directory" yaml:"directory"`
	Requested   int            `json:"requested" yaml:"requested"`
	Found       int            `json:"found" yaml:"found"`
	Successful  int            `json:"successful" yaml:"successful"`
	Failed      int            `json:"failed" yaml:"failed"`
	Results     []ImageSummary `json:"results" yaml:"results"`
}

// ImageSummary describes the outcome for a single image.
type ImageSummary struct {
	ImageID      string `json:"image_id" yaml:"image_id"`
	SourceURL    string `json:"source_url" yaml:"source_url"`
	FilePath     string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Status       string `json:"status" yaml:"status"` // "success" or "error"
	ErrorType    string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	HTTPStatus   int    `json:"http_status,omitempty" yaml:"http_status,omitempty"`
	SizeBytes    int64  `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	ContentHash  string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
}
