package lifecycle

import (
	"strings"

	"asset-lifecycle-api/internal/models"
)

// Sensitive payload field names as they appear in requests and in
// validation errors.
const (
	fieldEncryptionPassword = "encryption_password"
	fieldPhoneNumber        = "phone_number"
	fieldIMEI1              = "imei1"
	fieldIMEI2              = "imei2"
	fieldEmailAccount       = "email_account"
	fieldEmailPassword      = "email_password"
	fieldMessagingOTP       = "messaging_otp"
)

// payloadRule is one row of the category-conditional dispatch table:
// which sensitive fields a class requires and which it merely permits.
// Fields in neither list are rejected for that class.
type payloadRule struct {
	required []string
	optional []string
}

var payloadRules = map[models.CategoryClass]payloadRule{
	models.ClassNotebook: {
		required: []string{fieldEncryptionPassword},
	},
	models.ClassPhone: {
		required: []string{fieldIMEI1, fieldPhoneNumber, fieldEmailAccount, fieldEmailPassword, fieldMessagingOTP},
		optional: []string{fieldIMEI2},
	},
	models.ClassOther: {},
}

// payloadFields flattens the payload into name -> value for table-driven
// checks. Order matches the struct for readable error output.
func payloadFields(p models.AssignmentPayload) map[string]*string {
	return map[string]*string{
		fieldEncryptionPassword: p.EncryptionPassword,
		fieldPhoneNumber:        p.PhoneNumber,
		fieldIMEI1:              p.IMEI1,
		fieldIMEI2:              p.IMEI2,
		fieldEmailAccount:       p.EmailAccount,
		fieldEmailPassword:      p.EmailPassword,
		fieldMessagingOTP:       p.MessagingOTP,
	}
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

// ValidatePayload applies the category-conditional required-field policy.
// Unknown classes fall back to the "other" rule, which accepts no
// sensitive fields at all. All violations are reported in one pass so the
// caller can re-prompt for everything at once.
func ValidatePayload(class models.CategoryClass, p models.AssignmentPayload) error {
	rule, ok := payloadRules[class]
	if !ok {
		rule = payloadRules[models.ClassOther]
	}

	allowed := make(map[string]bool, len(rule.required)+len(rule.optional))
	for _, f := range rule.required {
		allowed[f] = true
	}
	for _, f := range rule.optional {
		allowed[f] = true
	}

	fields := payloadFields(p)
	violations := map[string]string{}

	for _, f := range rule.required {
		if isBlank(fields[f]) {
			violations[f] = "required for this category"
		}
	}
	for name, v := range fields {
		if !allowed[name] && !isBlank(v) {
			violations[name] = "not accepted for this category"
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Fields: violations}
	}
	return nil
}
