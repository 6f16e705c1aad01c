package service

import (
	"strings"

	apperrors "workshopbuddy/internal/errors"
	"workshopbuddy/internal/model"
)

func requireName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError(field, "is required")
	}
	return nil
}

// patchName applies a required string field. Null and blank are rejected.
func patchName(field string, opt model.Optional[string], dst *string) error {
	if !opt.Set {
		return nil
	}
	if opt.Null {
		return apperrors.NewValidationError(field, "cannot be null")
	}
	if err := requireName(field, opt.Value); err != nil {
		return err
	}
	*dst = opt.Value
	return nil
}

// patchInt applies a required integer field. Null is rejected.
func patchInt(field string, opt model.Optional[int], dst *int) error {
	if !opt.Set {
		return nil
	}
	if opt.Null {
		return apperrors.NewValidationError(field, "cannot be null")
	}
	*dst = opt.Value
	return nil
}

// patchText applies a nullable field. Null clears it.
func patchText(opt model.Optional[string], dst **string) {
	if opt.Set {
		*dst = opt.Ptr()
	}
}
