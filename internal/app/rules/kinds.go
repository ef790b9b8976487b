// Package rules decides, per application type, which attachments an
// application must carry and which fields a reader may see.
package rules

import (
	"github.com/yigit/kebele/internal/app/models"
)

// Requirement is an attachment a kind cannot be submitted without
type Requirement struct {
	Attachment models.Attachment
	Message    string
}

// Kind is the capability entry for one application type
type Kind struct {
	Type     models.ApplicationType
	Required []Requirement
	Visible  []string
	project  func(app *models.Application, fileURL func(string) string) interface{}
}

var kinds = map[models.ApplicationType]Kind{
	models.ApplicationTypeNewID: {
		Type: models.ApplicationTypeNewID,
		Required: []Requirement{
			{models.AttachmentPhoto, "Photo is required for NEW_ID applications."},
			{models.AttachmentResidenceProof, "Residence proof is required for NEW_ID applications."},
		},
		Visible: []string{
			"application_type", "full_name", "dob", "gender",
			"blood_group", "resident_address", "phone_number",
			"emergency_contact_name", "emergency_contact_phone",
			"photo", "residence_proof", "status",
		},
		project: func(app *models.Application, fileURL func(string) string) interface{} {
			return newIDView(app, fileURL)
		},
	},
	models.ApplicationTypeIDRenewal: {
		Type: models.ApplicationTypeIDRenewal,
		Required: []Requirement{
			{models.AttachmentPhoto, "Photo is required for ID_RENEWAL applications."},
			{models.AttachmentOldIDCard, "Old ID card is required for ID_RENEWAL applications."},
		},
		Visible: []string{
			"application_type", "existing_id_number", "full_name",
			"dob", "resident_address", "phone_number", "reason_for_renewal",
			"old_id_card", "photo", "status",
		},
		project: func(app *models.Application, fileURL func(string) string) interface{} {
			return idRenewalView(app, fileURL)
		},
	},
	models.ApplicationTypeBirthCertificate: {
		Type: models.ApplicationTypeBirthCertificate,
		Required: []Requirement{
			{models.AttachmentHospitalProof, "Hospital proof is required for BIRTH_CERTIFICATE applications."},
			{models.AttachmentParentID, "At lest one parent's ID is required for BIRTH_CERTIFICATE applications."},
			{models.AttachmentBirthCertificatePhoto, "A birth certificate photo is required for BIRTH_CERTIFICATE applications."},
		},
		Visible: []string{
			"application_type", "child_full_name", "dob", "place_of_birth",
			"gender", "father_full_name", "mother_full_name",
			"resident_address", "phone_number", "hospital_proof",
			"birth_certificate_photo", "parent_id", "status",
		},
		project: func(app *models.Application, fileURL func(string) string) interface{} {
			return birthCertificateView(app, fileURL)
		},
	},
}

// KindOf returns the capability entry for t. Unknown types report false.
func KindOf(t models.ApplicationType) (Kind, bool) {
	k, ok := kinds[t]
	return k, ok
}
