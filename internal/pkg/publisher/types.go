package publisher

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypePublishPost JobType = "publish_post"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background publish job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// PublishPostJobPayload identifies the scheduled post to push out. Published
// accumulates the platforms that already accepted the post, so a retry after
// a partial failure does not post to them a second time.
type PublishPostJobPayload struct {
	PostID    uint     `json:"post_id"`
	UserID    uint     `json:"user_id"`
	Published []string `json:"published,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p PublishPostJobPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"post_id": p.PostID,
		"user_id": p.UserID,
	}
	if len(p.Published) > 0 {
		m["published"] = p.Published
	}
	return m
}

// HasPublished reports whether the given platform already accepted the post.
func (p *PublishPostJobPayload) HasPublished(platform string) bool {
	for _, done := range p.Published {
		if done == platform {
			return true
		}
	}
	return false
}

// PublishPostJobPayloadFromMap creates a payload from a stored job map
func PublishPostJobPayloadFromMap(data map[string]interface{}) (*PublishPostJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PublishPostJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
