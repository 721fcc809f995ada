package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSchema signals a malformed inbound message. Schema failures are hard
// processing errors: the message is rejected, not retried by the handler.
var ErrSchema = errors.New("event schema violation")

// PayloadField is the stream entry field carrying the JSON-encoded event.
const PayloadField = "payload"

// StageRequestEvent asks the staging worker to copy an object into the
// outbox bucket.
type StageRequestEvent struct {
	RequestID  string    `json:"request_id"`
	ExternalID string    `json:"external_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// FileStagedEvent reports that the staging worker finished copying an
// object into the outbox bucket, possibly with a corrected checksum.
type FileStagedEvent struct {
	ExternalID  string `json:"external_id"`
	MD5Checksum string `json:"md5_checksum"`
	BucketID    string `json:"bucket_id,omitempty"`
}

// FileRegisteredEvent announces a file newly available upstream that should
// be registered in the metadata store.
type FileRegisteredEvent struct {
	ExternalID  string    `json:"external_id"`
	MD5Checksum string    `json:"md5_checksum"`
	Size        int64     `json:"size"`
	Timestamp   time.Time `json:"timestamp"`
}

// ObjectRegisteredEvent announces to downstream subscribers that metadata
// (not bytes) for an object is now registered.
type ObjectRegisteredEvent struct {
	ExternalID  string    `json:"external_id"`
	MD5Checksum string    `json:"md5_checksum"`
	Size        int64     `json:"size"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate checks the required fields of a FileStagedEvent.
func (e *FileStagedEvent) Validate() error {
	if e.ExternalID == "" {
		return fmt.Errorf("%w: file_staged event missing external_id", ErrSchema)
	}
	if e.MD5Checksum == "" {
		return fmt.Errorf("%w: file_staged event missing md5_checksum", ErrSchema)
	}
	return nil
}

// Validate checks the required fields of a FileRegisteredEvent.
func (e *FileRegisteredEvent) Validate() error {
	if e.ExternalID == "" {
		return fmt.Errorf("%w: file_registered event missing external_id", ErrSchema)
	}
	if e.MD5Checksum == "" {
		return fmt.Errorf("%w: file_registered event missing md5_checksum", ErrSchema)
	}
	if e.Size < 0 {
		return fmt.Errorf("%w: file_registered event has negative size %d", ErrSchema, e.Size)
	}
	return nil
}

// DecodeFileStaged parses and validates a file_staged payload.
func DecodeFileStaged(payload []byte) (*FileStagedEvent, error) {
	var event FileStagedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// DecodeFileRegistered parses and validates a file_registered payload.
func DecodeFileRegistered(payload []byte) (*FileRegisteredEvent, error) {
	var event FileRegisteredEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
