package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidDRSURI signals a self_uri that does not satisfy the DRS URI
	// grammar. Descriptor construction fails on it; a malformed descriptor
	// is never served.
	ErrInvalidDRSURI = errors.New("invalid DRS URI")

	// ErrInvalidExternalID signals an external id that cannot be used as an
	// object storage key.
	ErrInvalidExternalID = errors.New("invalid external id")
)

// drsURIPattern is the opaque-URI grammar for DRS self URIs:
// drs://<host>.<tld>/<id>.
var drsURIPattern = regexp.MustCompile(`^drs://.+\..+/.+`)

// externalIDPattern constrains external ids to characters that are safe as
// object storage keys.
var externalIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ObjectRecord is the canonical registration of a file object. The external
// id doubles as the object storage key of the staged blob.
type ObjectRecord struct {
	ID               uuid.UUID `json:"id"`
	ExternalID       string    `json:"external_id"`
	MD5Checksum      string    `json:"md5_checksum"`
	Size             int64     `json:"size"`
	RegistrationDate time.Time `json:"registration_date"`
}

// AccessURL points at the actual bytes of the object.
type AccessURL struct {
	URL string `json:"url"`
}

// AccessMethod describes one way of fetching the object bytes.
type AccessMethod struct {
	AccessURL AccessURL `json:"access_url"`
	Type      string    `json:"type"`
}

// Checksum is a content hash tagged with its algorithm name.
type Checksum struct {
	Checksum string `json:"checksum"`
	Type     string `json:"type"`
}

// DrsObject is the response-only access descriptor served to clients. It is
// built per request from an ObjectRecord and a presigned URL and is never
// persisted.
type DrsObject struct {
	ID            string         `json:"id"`
	SelfURI       string         `json:"self_uri"`
	Size          int64          `json:"size"`
	CreatedTime   string         `json:"created_time"`
	Checksums     []Checksum     `json:"checksums"`
	AccessMethods []AccessMethod `json:"access_methods"`
}

// ValidateDRSURI checks uri against the DRS URI grammar.
func ValidateDRSURI(uri string) error {
	if !drsURIPattern.MatchString(uri) {
		return fmt.Errorf("%w: %q", ErrInvalidDRSURI, uri)
	}
	return nil
}

// ValidateExternalID checks that id can be used as an object storage key.
func ValidateExternalID(id string) error {
	if len(id) == 0 || len(id) > 255 || !externalIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q cannot be used as an object storage key", ErrInvalidExternalID, id)
	}
	return nil
}
