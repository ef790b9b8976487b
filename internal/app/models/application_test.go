package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestApplicationFieldsApplyTo(t *testing.T) {
	app := &Application{FullName: strPtr("Old Name"), Gender: strPtr("F")}
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)

	ApplicationFields{FullName: strPtr("New Name"), Dob: &dob}.ApplyTo(app)

	assert.Equal(t, "New Name", *app.FullName)
	assert.Equal(t, "F", *app.Gender)
	require.NotNil(t, app.Dob)
	assert.True(t, app.Dob.Equal(dob))
}

func TestApplicationClone(t *testing.T) {
	app := &Application{ID: 7, FullName: strPtr("Abebe"), Photo: strPtr("applications/photos/a.png")}
	c := app.Clone()

	*c.FullName = "Changed"
	c.SetAttachment(AttachmentPhoto, nil)

	assert.Equal(t, "Abebe", *app.FullName)
	assert.NotNil(t, app.AttachmentKey(AttachmentPhoto))
	assert.Nil(t, c.AttachmentKey(AttachmentPhoto))
}

func TestAttachmentKeyTreatsEmptyAsMissing(t *testing.T) {
	app := &Application{ResidenceProof: strPtr("")}
	assert.Nil(t, app.AttachmentKey(AttachmentResidenceProof))
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "New ID", ApplicationTypeNewID.DisplayName())
	assert.Equal(t, "ID Renewal", ApplicationTypeIDRenewal.DisplayName())
	assert.Equal(t, "Birth Certificate", ApplicationTypeBirthCertificate.DisplayName())
	assert.Equal(t, "Pending Review", StatusPending.DisplayName())
	assert.Equal(t, "Ready for Pickup", StatusReady.DisplayName())
	assert.Equal(t, "Rejected", StatusRejected.DisplayName())
	assert.False(t, ApplicationType("PASSPORT").IsValid())
}

func TestStorageDirs(t *testing.T) {
	assert.Equal(t, "applications/photos", AttachmentPhoto.StorageDir())
	assert.Equal(t, "applications/proofs", AttachmentResidenceProof.StorageDir())
	assert.Equal(t, "applications/old_ids", AttachmentOldIDCard.StorageDir())
	assert.Equal(t, "applications/hospital_proofs", AttachmentHospitalProof.StorageDir())
	assert.Equal(t, "applications/parent_ids", AttachmentParentID.StorageDir())
	assert.Equal(t, "applications/birth_photos", AttachmentBirthCertificatePhoto.StorageDir())
}
