package models

// JobStatus is the lifecycle state of an async invoice-creation job.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobSuccess    JobStatus = "success"
	JobFailed     JobStatus = "failed"
)

// AsyncJob is the handle returned by a platform for an in-progress
// invoice creation.
type AsyncJob struct {
	ID          string `json:"id"`
	ResponseURL string `json:"response_url"`
}

// JobMetadata is the record polled by clients while a sync is in flight.
// ResponseBody carries either the created invoice or an error envelope.
type JobMetadata struct {
	JobID          string    `json:"job_id"`
	OrganizationID string    `json:"organization_id"`
	Status         JobStatus `json:"status"`
	ResponseURL    string    `json:"response_url"`
	ResponseBody   any       `json:"response_body,omitempty"`
}

// JobError is the error envelope stored on a failed job.
type JobError struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
