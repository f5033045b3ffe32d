package lifecycle

import (
	"errors"
	"testing"

	"asset-lifecycle-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func phonePayload() models.AssignmentPayload {
	return models.AssignmentPayload{
		PhoneNumber:   strPtr("+55 11 99999-0000"),
		IMEI1:         strPtr("356938035643809"),
		EmailAccount:  strPtr("field.tech@corp.example"),
		EmailPassword: strPtr("hunter2!"),
		MessagingOTP:  strPtr("483921"),
	}
}

func TestValidatePayloadNotebook(t *testing.T) {
	t.Run("password required", func(t *testing.T) {
		err := ValidatePayload(models.ClassNotebook, models.AssignmentPayload{})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "encryption_password")
	})

	t.Run("password alone passes", func(t *testing.T) {
		err := ValidatePayload(models.ClassNotebook, models.AssignmentPayload{
			EncryptionPassword: strPtr("bitlocker-pass"),
		})
		assert.NoError(t, err)
	})

	t.Run("blank password fails", func(t *testing.T) {
		err := ValidatePayload(models.ClassNotebook, models.AssignmentPayload{
			EncryptionPassword: strPtr("   "),
		})
		assert.Error(t, err)
	})

	t.Run("phone fields rejected", func(t *testing.T) {
		p := models.AssignmentPayload{
			EncryptionPassword: strPtr("x"),
			IMEI1:              strPtr("356938035643809"),
		}
		err := ValidatePayload(models.ClassNotebook, p)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "imei1")
		assert.NotContains(t, verr.Fields, "encryption_password")
	})
}

func TestValidatePayloadPhone(t *testing.T) {
	t.Run("full payload passes", func(t *testing.T) {
		assert.NoError(t, ValidatePayload(models.ClassPhone, phonePayload()))
	})

	t.Run("imei2 is optional", func(t *testing.T) {
		p := phonePayload()
		p.IMEI2 = strPtr("356938035643810")
		assert.NoError(t, ValidatePayload(models.ClassPhone, p))

		p.IMEI2 = nil
		assert.NoError(t, ValidatePayload(models.ClassPhone, p))
	})

	t.Run("each required field is reported when missing", func(t *testing.T) {
		err := ValidatePayload(models.ClassPhone, models.AssignmentPayload{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		for _, field := range []string{"imei1", "phone_number", "email_account", "email_password", "messaging_otp"} {
			assert.Contains(t, verr.Fields, field)
		}
		assert.NotContains(t, verr.Fields, "imei2")
	})

	t.Run("notebook field rejected", func(t *testing.T) {
		p := phonePayload()
		p.EncryptionPassword = strPtr("nope")
		err := ValidatePayload(models.ClassPhone, p)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "encryption_password")
	})
}

func TestValidatePayloadOther(t *testing.T) {
	t.Run("empty payload passes", func(t *testing.T) {
		assert.NoError(t, ValidatePayload(models.ClassOther, models.AssignmentPayload{}))
	})

	t.Run("any sensitive field rejected", func(t *testing.T) {
		err := ValidatePayload(models.ClassOther, models.AssignmentPayload{
			EncryptionPassword: strPtr("x"),
			PhoneNumber:        strPtr("y"),
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 2)
	})

	t.Run("unknown class behaves like other", func(t *testing.T) {
		err := ValidatePayload(models.CategoryClass("printer"), models.AssignmentPayload{
			IMEI1: strPtr("356938035643809"),
		})
		assert.Error(t, err)
		assert.NoError(t, ValidatePayload(models.CategoryClass("printer"), models.AssignmentPayload{}))
	})
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidatePayload(models.ClassNotebook, models.AssignmentPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encryption_password")
	assert.True(t, IsValidation(err))
	assert.False(t, IsStateConflict(err))
}

func TestErrorHelpers(t *testing.T) {
	conflict := &StateConflictError{ItemID: 7, Current: models.StateAssigned, Requested: models.StateAssigned}
	assert.True(t, IsStateConflict(conflict))
	assert.Contains(t, conflict.Error(), "illegal transition")

	withMsg := &StateConflictError{ItemID: 7, Msg: "assignment 3 is already returned"}
	assert.Equal(t, "assignment 3 is already returned", withMsg.Error())

	wrapped := errors.Join(errors.New("ctx"), conflict)
	assert.True(t, IsStateConflict(wrapped))
}
