package models

import (
	"time"
)

// Attachment names one of the file slots on an application
type Attachment string

const (
	AttachmentPhoto                 Attachment = "photo"
	AttachmentResidenceProof        Attachment = "residence_proof"
	AttachmentOldIDCard             Attachment = "old_id_card"
	AttachmentHospitalProof         Attachment = "hospital_proof"
	AttachmentParentID              Attachment = "parent_id"
	AttachmentBirthCertificatePhoto Attachment = "birth_certificate_photo"
)

// Attachments lists every attachment slot in form order
var Attachments = []Attachment{
	AttachmentPhoto,
	AttachmentResidenceProof,
	AttachmentOldIDCard,
	AttachmentHospitalProof,
	AttachmentParentID,
	AttachmentBirthCertificatePhoto,
}

// ProfilePictureDir is the storage area for user profile pictures
const ProfilePictureDir = "profiles"

// StorageDir returns the storage area an attachment is saved under
func (a Attachment) StorageDir() string {
	switch a {
	case AttachmentPhoto:
		return "applications/photos"
	case AttachmentResidenceProof:
		return "applications/proofs"
	case AttachmentOldIDCard:
		return "applications/old_ids"
	case AttachmentHospitalProof:
		return "applications/hospital_proofs"
	case AttachmentParentID:
		return "applications/parent_ids"
	case AttachmentBirthCertificatePhoto:
		return "applications/birth_photos"
	default:
		return "applications/other"
	}
}

// Application defines the application model based on the 'applications' table
type Application struct {
	ID              int64             `json:"id" db:"id"`
	UserID          int64             `json:"user" db:"user_id"`
	ApplicationType ApplicationType   `json:"application_type" db:"application_type"`
	Status          ApplicationStatus `json:"status" db:"status"`

	// Common personal details
	FullName        *string    `json:"full_name" db:"full_name"`
	Dob             *time.Time `json:"dob" db:"dob"`
	Gender          *string    `json:"gender" db:"gender"`
	ResidentAddress *string    `json:"resident_address" db:"resident_address"`
	PhoneNumber     *string    `json:"phone_number" db:"phone_number"`

	// NEW_ID
	EmergencyContactName  *string `json:"emergency_contact_name" db:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone" db:"emergency_contact_phone"`
	BloodGroup            *string `json:"blood_group" db:"blood_group"`

	// ID_RENEWAL
	ExistingIDNumber *string `json:"existing_id_number" db:"existing_id_number"`
	ReasonForRenewal *string `json:"reason_for_renewal" db:"reason_for_renewal"`

	// BIRTH_CERTIFICATE
	ChildFullName  *string `json:"child_full_name" db:"child_full_name"`
	PlaceOfBirth   *string `json:"place_of_birth" db:"place_of_birth"`
	FatherFullName *string `json:"father_full_name" db:"father_full_name"`
	MotherFullName *string `json:"mother_full_name" db:"mother_full_name"`

	// Attachment storage keys
	Photo                 *string `json:"photo" db:"photo"`
	ResidenceProof        *string `json:"residence_proof" db:"residence_proof"`
	OldIDCard             *string `json:"old_id_card" db:"old_id_card"`
	HospitalProof         *string `json:"hospital_proof" db:"hospital_proof"`
	ParentID              *string `json:"parent_id" db:"parent_id"`
	BirthCertificatePhoto *string `json:"birth_certificate_photo" db:"birth_certificate_photo"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AttachmentKey returns the stored key for the given slot, nil when empty
func (a *Application) AttachmentKey(slot Attachment) *string {
	var key *string
	switch slot {
	case AttachmentPhoto:
		key = a.Photo
	case AttachmentResidenceProof:
		key = a.ResidenceProof
	case AttachmentOldIDCard:
		key = a.OldIDCard
	case AttachmentHospitalProof:
		key = a.HospitalProof
	case AttachmentParentID:
		key = a.ParentID
	case AttachmentBirthCertificatePhoto:
		key = a.BirthCertificatePhoto
	}
	if key == nil || *key == "" {
		return nil
	}
	return key
}

// SetAttachment stores key in the given slot
func (a *Application) SetAttachment(slot Attachment, key *string) {
	switch slot {
	case AttachmentPhoto:
		a.Photo = key
	case AttachmentResidenceProof:
		a.ResidenceProof = key
	case AttachmentOldIDCard:
		a.OldIDCard = key
	case AttachmentHospitalProof:
		a.HospitalProof = key
	case AttachmentParentID:
		a.ParentID = key
	case AttachmentBirthCertificatePhoto:
		a.BirthCertificatePhoto = key
	}
}

// ApplicationFields carries the text fields a resident may submit.
// Nil pointers mean "not provided" and leave the stored value untouched.
type ApplicationFields struct {
	FullName              *string
	Dob                   *time.Time
	Gender                *string
	ResidentAddress       *string
	PhoneNumber           *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	BloodGroup            *string
	ExistingIDNumber      *string
	ReasonForRenewal      *string
	ChildFullName         *string
	PlaceOfBirth          *string
	FatherFullName        *string
	MotherFullName        *string
}

// ApplyTo copies every provided field onto app
func (f ApplicationFields) ApplyTo(app *Application) {
	set := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}

	set(&app.FullName, f.FullName)
	if f.Dob != nil {
		d := *f.Dob
		app.Dob = &d
	}
	set(&app.Gender, f.Gender)
	set(&app.ResidentAddress, f.ResidentAddress)
	set(&app.PhoneNumber, f.PhoneNumber)
	set(&app.EmergencyContactName, f.EmergencyContactName)
	set(&app.EmergencyContactPhone, f.EmergencyContactPhone)
	set(&app.BloodGroup, f.BloodGroup)
	set(&app.ExistingIDNumber, f.ExistingIDNumber)
	set(&app.ReasonForRenewal, f.ReasonForRenewal)
	set(&app.ChildFullName, f.ChildFullName)
	set(&app.PlaceOfBirth, f.PlaceOfBirth)
	set(&app.FatherFullName, f.FatherFullName)
	set(&app.MotherFullName, f.MotherFullName)
}

// Clone returns a copy of app that shares no pointers with it
func (a *Application) Clone() *Application {
	c := *a
	dup := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	c.FullName = dup(a.FullName)
	if a.Dob != nil {
		d := *a.Dob
		c.Dob = &d
	}
	c.Gender = dup(a.Gender)
	c.ResidentAddress = dup(a.ResidentAddress)
	c.PhoneNumber = dup(a.PhoneNumber)
	c.EmergencyContactName = dup(a.EmergencyContactName)
	c.EmergencyContactPhone = dup(a.EmergencyContactPhone)
	c.BloodGroup = dup(a.BloodGroup)
	c.ExistingIDNumber = dup(a.ExistingIDNumber)
	c.ReasonForRenewal = dup(a.ReasonForRenewal)
	c.ChildFullName = dup(a.ChildFullName)
	c.PlaceOfBirth = dup(a.PlaceOfBirth)
	c.FatherFullName = dup(a.FatherFullName)
	c.MotherFullName = dup(a.MotherFullName)
	c.Photo = dup(a.Photo)
	c.ResidenceProof = dup(a.ResidenceProof)
	c.OldIDCard = dup(a.OldIDCard)
	c.HospitalProof = dup(a.HospitalProof)
	c.ParentID = dup(a.ParentID)
	c.BirthCertificatePhoto = dup(a.BirthCertificatePhoto)
	return &c
}
