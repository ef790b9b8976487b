package dto

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationErrorUsesFormNames(t *testing.T) {
	RegisterTagNames()

	dob := "01/05/1990"
	req := CreateApplicationRequest{ApplicationFieldsForm: ApplicationFieldsForm{Dob: &dob}}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	detail := HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)
	assert.Equal(t, "application_type", detail.Field)

	fields, ok := detail.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "application_type is required", fields["application_type"])
	assert.Contains(t, fields["dob"], "YYYY-MM-DD")
}

func TestHandleValidationErrorNonValidator(t *testing.T) {
	detail := HandleValidationError(errors.New("unexpected EOF"))
	assert.Equal(t, ErrorCodeInvalidRequest, detail.Code)
	assert.Equal(t, "unexpected EOF", detail.Details)
}

func TestToFieldsParsesDob(t *testing.T) {
	dob := "1990-05-01"
	name := "Abebe"
	fields, err := ApplicationFieldsForm{Dob: &dob, FullName: &name}.ToFields()
	require.NoError(t, err)
	require.NotNil(t, fields.Dob)
	assert.Equal(t, 1990, fields.Dob.Year())
	assert.Equal(t, "Abebe", *fields.FullName)
}
