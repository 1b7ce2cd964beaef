package validation

import "curachain/core/audit"

// auditValidationError logs a rejected payload. Only the schema name and
// the violations are recorded, never the payload itself.
func (v *Validator) auditValidationError(schema Schema, issues string) {
	e := audit.NewEvent("payload_validation", "", audit.ResultFailure, issues, map[string]string{"schema": string(schema)})
	v.logger.Warn("payload rejected", "schema", e.Metadata["schema"], "audit_id", e.ID, "issues", e.Reason)
}
