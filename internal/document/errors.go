package document

import (
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Finding ids, following Markdoc's names where one exists.
const (
	IDTagUndefined             = "tag-undefined"
	IDMissingOpening           = "missing-opening"
	IDMissingClosing           = "missing-closing"
	IDSyntaxError              = "syntax-error"
	IDAttributeUndefined       = "attribute-undefined"
	IDAttributeMissingRequired = "attribute-missing-required"
	IDAttributeTypeInvalid     = "attribute-type-invalid"
	IDAttributeValueInvalid    = "attribute-value-invalid"
	IDVariableUndefined        = "variable-undefined"
	IDFunctionUndefined        = "function-undefined"
	IDExpressionInvalid        = "expression-invalid"
	IDPartialUndefined         = "partial-undefined"
	IDPartialCycle             = "partial-cycle"
	IDSelfClosingWithChildren  = "tag-selfclosing-has-children"
)

// Finding kinds.
const (
	KindTag      = "tag"
	KindVariable = "variable"
	KindFunction = "function"
	KindNode     = "node"
)

var severities = map[string]validation.Severity{
	IDTagUndefined:             validation.SeverityCritical,
	IDMissingOpening:           validation.SeverityCritical,
	IDMissingClosing:           validation.SeverityCritical,
	IDSyntaxError:              validation.SeverityCritical,
	IDAttributeUndefined:       validation.SeverityError,
	IDAttributeMissingRequired: validation.SeverityError,
	IDAttributeTypeInvalid:     validation.SeverityError,
	IDAttributeValueInvalid:    validation.SeverityError,
	IDVariableUndefined:        validation.SeverityError,
	IDFunctionUndefined:        validation.SeverityCritical,
	IDExpressionInvalid:        validation.SeverityError,
	IDPartialUndefined:         validation.SeverityError,
	IDPartialCycle:             validation.SeverityCritical,
	IDSelfClosingWithChildren:  validation.SeverityWarning,
}

// SeverityOf returns the severity reported for a finding id.
func SeverityOf(id string) validation.Severity {
	if s, ok := severities[id]; ok {
		return s
	}
	return validation.SeverityError
}
