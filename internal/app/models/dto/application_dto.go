package dto

import (
	"time"

	"github.com/yigit/kebele/internal/app/models"
)

// DateLayout is the wire format for dates of birth
const DateLayout = "2006-01-02"

// ApplicationFieldsForm holds the text fields shared by create and update.
// Attachments arrive as multipart files and are read separately.
type ApplicationFieldsForm struct {
	FullName              *string `form:"full_name" binding:"omitempty,max=255"`
	Dob                   *string `form:"dob" binding:"omitempty,datetime=2006-01-02"`
	Gender                *string `form:"gender" binding:"omitempty,max=10"`
	ResidentAddress       *string `form:"resident_address" binding:"omitempty,max=255"`
	PhoneNumber           *string `form:"phone_number" binding:"omitempty,max=20"`
	EmergencyContactName  *string `form:"emergency_contact_name" binding:"omitempty,max=255"`
	EmergencyContactPhone *string `form:"emergency_contact_phone" binding:"omitempty,max=20"`
	BloodGroup            *string `form:"blood_group" binding:"omitempty,max=5"`
	ExistingIDNumber      *string `form:"existing_id_number" binding:"omitempty,max=50"`
	ReasonForRenewal      *string `form:"reason_for_renewal" binding:"omitempty,max=1000"`
	ChildFullName         *string `form:"child_full_name" binding:"omitempty,max=255"`
	PlaceOfBirth          *string `form:"place_of_birth" binding:"omitempty,max=255"`
	FatherFullName        *string `form:"father_full_name" binding:"omitempty,max=255"`
	MotherFullName        *string `form:"mother_full_name" binding:"omitempty,max=255"`
}

// CreateApplicationRequest is the multipart body of POST /applications
type CreateApplicationRequest struct {
	ApplicationType string `form:"application_type" binding:"required"`
	ApplicationFieldsForm
}

// UpdateApplicationRequest is the multipart body of PUT/PATCH /applications/:id.
// Every field is optional and merged onto the stored record. Type and status
// values are checked by the service after the permission checks.
type UpdateApplicationRequest struct {
	ApplicationType *string `form:"application_type"`
	Status          *string `form:"status"`
	ApplicationFieldsForm
}

// ToFields converts the form into domain fields. Dob has already been
// checked by the datetime binding, so a parse failure is reported as-is.
func (f ApplicationFieldsForm) ToFields() (models.ApplicationFields, error) {
	fields := models.ApplicationFields{
		FullName:              f.FullName,
		Gender:                f.Gender,
		ResidentAddress:       f.ResidentAddress,
		PhoneNumber:           f.PhoneNumber,
		EmergencyContactName:  f.EmergencyContactName,
		EmergencyContactPhone: f.EmergencyContactPhone,
		BloodGroup:            f.BloodGroup,
		ExistingIDNumber:      f.ExistingIDNumber,
		ReasonForRenewal:      f.ReasonForRenewal,
		ChildFullName:         f.ChildFullName,
		PlaceOfBirth:          f.PlaceOfBirth,
		FatherFullName:        f.FatherFullName,
		MotherFullName:        f.MotherFullName,
	}
	if f.Dob != nil && *f.Dob != "" {
		dob, err := time.Parse(DateLayout, *f.Dob)
		if err != nil {
			return fields, err
		}
		fields.Dob = &dob
	}
	return fields, nil
}
