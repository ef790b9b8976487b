package rules

import (
	"time"

	"github.com/yigit/kebele/internal/app/models"
)

const dateLayout = "2006-01-02"

// NewIDView is what a reader sees of a NEW_ID application
type NewIDView struct {
	ApplicationType       models.ApplicationType   `json:"application_type"`
	FullName              *string                  `json:"full_name"`
	Dob                   *string                  `json:"dob"`
	Gender                *string                  `json:"gender"`
	BloodGroup            *string                  `json:"blood_group"`
	ResidentAddress       *string                  `json:"resident_address"`
	PhoneNumber           *string                  `json:"phone_number"`
	EmergencyContactName  *string                  `json:"emergency_contact_name"`
	EmergencyContactPhone *string                  `json:"emergency_contact_phone"`
	Photo                 *string                  `json:"photo"`
	ResidenceProof        *string                  `json:"residence_proof"`
	Status                models.ApplicationStatus `json:"status"`
}

// IDRenewalView is what a reader sees of an ID_RENEWAL application
type IDRenewalView struct {
	ApplicationType  models.ApplicationType   `json:"application_type"`
	ExistingIDNumber *string                  `json:"existing_id_number"`
	FullName         *string                  `json:"full_name"`
	Dob              *string                  `json:"dob"`
	ResidentAddress  *string                  `json:"resident_address"`
	PhoneNumber      *string                  `json:"phone_number"`
	ReasonForRenewal *string                  `json:"reason_for_renewal"`
	OldIDCard        *string                  `json:"old_id_card"`
	Photo            *string                  `json:"photo"`
	Status           models.ApplicationStatus `json:"status"`
}

// BirthCertificateView is what a reader sees of a BIRTH_CERTIFICATE application
type BirthCertificateView struct {
	ApplicationType       models.ApplicationType   `json:"application_type"`
	ChildFullName         *string                  `json:"child_full_name"`
	Dob                   *string                  `json:"dob"`
	PlaceOfBirth          *string                  `json:"place_of_birth"`
	Gender                *string                  `json:"gender"`
	FatherFullName        *string                  `json:"father_full_name"`
	MotherFullName        *string                  `json:"mother_full_name"`
	ResidentAddress       *string                  `json:"resident_address"`
	PhoneNumber           *string                  `json:"phone_number"`
	HospitalProof         *string                  `json:"hospital_proof"`
	BirthCertificatePhoto *string                  `json:"birth_certificate_photo"`
	ParentID              *string                  `json:"parent_id"`
	Status                models.ApplicationStatus `json:"status"`
}

// FullView exposes every stored field. Used for types with no allow-list.
type FullView struct {
	ID                    int64                    `json:"id"`
	User                  int64                    `json:"user"`
	ApplicationType       models.ApplicationType   `json:"application_type"`
	Status                models.ApplicationStatus `json:"status"`
	FullName              *string                  `json:"full_name"`
	Dob                   *string                  `json:"dob"`
	Gender                *string                  `json:"gender"`
	ResidentAddress       *string                  `json:"resident_address"`
	PhoneNumber           *string                  `json:"phone_number"`
	EmergencyContactName  *string                  `json:"emergency_contact_name"`
	EmergencyContactPhone *string                  `json:"emergency_contact_phone"`
	BloodGroup            *string                  `json:"blood_group"`
	ExistingIDNumber      *string                  `json:"existing_id_number"`
	ReasonForRenewal      *string                  `json:"reason_for_renewal"`
	ChildFullName         *string                  `json:"child_full_name"`
	PlaceOfBirth          *string                  `json:"place_of_birth"`
	FatherFullName        *string                  `json:"father_full_name"`
	MotherFullName        *string                  `json:"mother_full_name"`
	Photo                 *string                  `json:"photo"`
	ResidenceProof        *string                  `json:"residence_proof"`
	OldIDCard             *string                  `json:"old_id_card"`
	HospitalProof         *string                  `json:"hospital_proof"`
	ParentID              *string                  `json:"parent_id"`
	BirthCertificatePhoto *string                  `json:"birth_certificate_photo"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// Project returns the representation of app a reader is allowed to see.
// fileURL turns stored attachment keys into links; nil leaves keys as-is.
func Project(app *models.Application, fileURL func(string) string) interface{} {
	if app == nil {
		return nil
	}
	if k, ok := KindOf(app.ApplicationType); ok {
		return k.project(app, fileURL)
	}
	return fullView(app, fileURL)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func link(app *models.Application, slot models.Attachment, fileURL func(string) string) *string {
	key := app.AttachmentKey(slot)
	if key == nil {
		return nil
	}
	s := *key
	if fileURL != nil {
		s = fileURL(s)
	}
	return &s
}

func newIDView(app *models.Application, fileURL func(string) string) NewIDView {
	return NewIDView{
		ApplicationType:       app.ApplicationType,
		FullName:              app.FullName,
		Dob:                   formatDate(app.Dob),
		Gender:                app.Gender,
		BloodGroup:            app.BloodGroup,
		ResidentAddress:       app.ResidentAddress,
		PhoneNumber:           app.PhoneNumber,
		EmergencyContactName:  app.EmergencyContactName,
		EmergencyContactPhone: app.EmergencyContactPhone,
		Photo:                 link(app, models.AttachmentPhoto, fileURL),
		ResidenceProof:        link(app, models.AttachmentResidenceProof, fileURL),
		Status:                app.Status,
	}
}

func idRenewalView(app *models.Application, fileURL func(string) string) IDRenewalView {
	return IDRenewalView{
		ApplicationType:  app.ApplicationType,
		ExistingIDNumber: app.ExistingIDNumber,
		FullName:         app.FullName,
		Dob:              formatDate(app.Dob),
		ResidentAddress:  app.ResidentAddress,
		PhoneNumber:      app.PhoneNumber,
		ReasonForRenewal: app.ReasonForRenewal,
		OldIDCard:        link(app, models.AttachmentOldIDCard, fileURL),
		Photo:            link(app, models.AttachmentPhoto, fileURL),
		Status:           app.Status,
	}
}

func birthCertificateView(app *models.Application, fileURL func(string) string) BirthCertificateView {
	return BirthCertificateView{
		ApplicationType:       app.ApplicationType,
		ChildFullName:         app.ChildFullName,
		Dob:                   formatDate(app.Dob),
		PlaceOfBirth:          app.PlaceOfBirth,
		Gender:                app.Gender,
		FatherFullName:        app.FatherFullName,
		MotherFullName:        app.MotherFullName,
		ResidentAddress:       app.ResidentAddress,
		PhoneNumber:           app.PhoneNumber,
		HospitalProof:         link(app, models.AttachmentHospitalProof, fileURL),
		BirthCertificatePhoto: link(app, models.AttachmentBirthCertificatePhoto, fileURL),
		ParentID:              link(app, models.AttachmentParentID, fileURL),
		Status:                app.Status,
	}
}

func fullView(app *models.Application, fileURL func(string) string) FullView {
	return FullView{
		ID:                    app.ID,
		User:                  app.UserID,
		ApplicationType:       app.ApplicationType,
		Status:                app.Status,
		FullName:              app.FullName,
		Dob:                   formatDate(app.Dob),
		Gender:                app.Gender,
		ResidentAddress:       app.ResidentAddress,
		PhoneNumber:           app.PhoneNumber,
		EmergencyContactName:  app.EmergencyContactName,
		EmergencyContactPhone: app.EmergencyContactPhone,
		BloodGroup:            app.BloodGroup,
		ExistingIDNumber:      app.ExistingIDNumber,
		ReasonForRenewal:      app.ReasonForRenewal,
		ChildFullName:         app.ChildFullName,
		PlaceOfBirth:          app.PlaceOfBirth,
		FatherFullName:        app.FatherFullName,
		MotherFullName:        app.MotherFullName,
		Photo:                 link(app, models.AttachmentPhoto, fileURL),
		ResidenceProof:        link(app, models.AttachmentResidenceProof, fileURL),
		OldIDCard:             link(app, models.AttachmentOldIDCard, fileURL),
		HospitalProof:         link(app, models.AttachmentHospitalProof, fileURL),
		ParentID:              link(app, models.AttachmentParentID, fileURL),
		BirthCertificatePhoto: link(app, models.AttachmentBirthCertificatePhoto, fileURL),
		CreatedAt:             app.CreatedAt,
		UpdatedAt:             app.UpdatedAt,
	}
}
