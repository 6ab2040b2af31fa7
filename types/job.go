package types

import (
	"time"

	"github.com/google/uuid"
)

// ImagePayload carries normalized image bytes plus their MIME type. The
// media package produces these; providers transmit them base64-encoded.
type ImagePayload struct {
	Data []byte `json:"-"`
	MIME string `json:"mime"`
}

// Empty reports whether the payload carries no image data.
func (p ImagePayload) Empty() bool { return len(p.Data) == 0 }

// GenerationJob is the immutable input unit of the pipeline: one image,
// optional free-text business context, and a target schema identifier.
// A job never changes after submission; all mutable state lives in the
// controller's job-scoped RetryState.
type GenerationJob struct {
	ID        string       `json:"id"`
	Schema    string       `json:"schema"`
	Image     ImagePayload `json:"image"`
	Context   string       `json:"context,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewJob creates a GenerationJob with a fresh UUID.
func NewJob(schema string, image ImagePayload, businessContext string) GenerationJob {
	return GenerationJob{
		ID:        uuid.NewString(),
		Schema:    schema,
		Image:     image,
		Context:   businessContext,
		CreatedAt: time.Now().UTC(),
	}
}

// Attempt records one generate+validate cycle within a job. Attempts are
// append-only; Seq is 0-based and strictly increasing.
type Attempt struct {
	Seq      int               `json:"seq"`
	Output   map[string]any    `json:"output,omitempty"`
	Outcome  ValidationOutcome `json:"outcome"`
	Duration time.Duration     `json:"duration"`
}

// JobStatus is the terminal status of a job.
type JobStatus string

const (
	// StatusPassed means the final attempt satisfied every constraint.
	StatusPassed JobStatus = "passed"
	// StatusUnverified means the retry budget was exhausted; the last
	// output is returned best-effort and must be treated as unverified.
	StatusUnverified JobStatus = "unverified_after_retries"
	// StatusStopped means a hard or configuration failure terminated the
	// job; ErrorHistory holds the recorded failures.
	StatusStopped JobStatus = "stopped_with_error"
)

// JobResult is the output of a job: the generated content (possibly
// best-effort), the terminal status, and the accumulated failure history.
type JobResult struct {
	JobID        string         `json:"job_id"`
	Schema       string         `json:"schema"`
	Status       JobStatus      `json:"status"`
	Content      map[string]any `json:"content,omitempty"`
	Attempts     []Attempt      `json:"attempts"`
	ErrorHistory []string       `json:"error_history,omitempty"`
}

// Verified reports whether the content passed validation.
func (r JobResult) Verified() bool { return r.Status == StatusPassed }
