package process_payment_notification

import (
	"fmt"
	"strings"
)

// validateRequest проверяет наличие всех трёх полей уведомления
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrMalformedRequest)
	}

	missing := make([]string, 0, 3)
	if strings.TrimSpace(req.SignatureVersion) == "" {
		missing = append(missing, "Ds_SignatureVersion")
	}
	if strings.TrimSpace(req.MerchantParameters) == "" {
		missing = append(missing, "Ds_MerchantParameters")
	}
	if strings.TrimSpace(req.Signature) == "" {
		missing = append(missing, "Ds_Signature")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedRequest, strings.Join(missing, ", "))
	}
	return nil
}
