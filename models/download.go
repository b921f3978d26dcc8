package models

// FailureReason tags why a task or discovery page failed. Empty means success.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonRequestError   FailureReason = "request_error"
	ReasonBadStatus      FailureReason = "bad_status"
	ReasonParseError     FailureReason = "parse_error"
	ReasonNoNewResults   FailureReason = "no_new_results"
	ReasonBadContentType FailureReason = "bad_content_type"
	ReasonInvalidID      FailureReason = "invalid_id"
	ReasonWriteError     FailureReason = "write_error"
	ReasonRenameError    FailureReason = "rename_error"
)

const (
	StatusSuccess = 0
	StatusFailed  = 1
)

// DownloadResult is the outcome of one download task.
type DownloadResult struct {
	ImageID     string
	SourceURL   string
	WorkerID    int
	Status      int // 0=success, 1=failed
	Reason      FailureReason
	Err         error
	HTTPStatus  int
	FilePath    string
	Extension   string
	SizeBytes   int64
	ContentHash string
}

// OK reports whether the task succeeded.
func (r DownloadResult) OK() bool {
	return r.Status == StatusSuccess
}
