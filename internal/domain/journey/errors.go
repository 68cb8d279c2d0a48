package journey

import "errors"

var (
	ErrJourneyNotFound  = errors.New("journey not found")
	ErrStageNotFound    = errors.New("stage not found")
	ErrProtocolNotFound = errors.New("protocol not found")

	ErrMissingPatientID    = errors.New("patient_id is required")
	ErrMissingStageName    = errors.New("stage_name is required")
	ErrMissingDescription  = errors.New("description is required")
	ErrMissingProfessional = errors.New("responsible_professional is required")
	ErrInvalidStageStatus  = errors.New("invalid stage status")
)
