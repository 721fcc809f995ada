package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/helixbio/drshub/common/models"
)

// accessMethodType is the only access method currently issued.
const accessMethodType = "s3"

// BuildDescriptor translates an object record and a presigned URL into the
// DRS descriptor served to clients. The self URI is validated against
// the DRS URI grammar; construction fails rather than serving a malformed
// descriptor.
func BuildDescriptor(record *models.ObjectRecord, url, selfURIBase string) (*models.DrsObject, error) {
	selfURI := fmt.Sprintf("%s/%s", strings.TrimSuffix(selfURIBase, "/"), record.ExternalID)

	if err := models.ValidateDRSURI(selfURI); err != nil {
		return nil, err
	}

	return &models.DrsObject{
		ID:          record.ExternalID,
		SelfURI:     selfURI,
		Size:        record.Size,
		CreatedTime: record.RegistrationDate.Format(time.RFC3339),
		Checksums: []models.Checksum{
			{Checksum: record.MD5Checksum, Type: "md5"},
		},
		AccessMethods: []models.AccessMethod{
			{AccessURL: models.AccessURL{URL: url}, Type: accessMethodType},
		},
	}, nil
}
