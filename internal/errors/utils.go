package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a LabsheetError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *LabsheetError {
	if err == nil {
		return nil
	}

	var le *LabsheetError
	if errors.As(err, &le) {
		return &LabsheetError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       le,
			Context:     le.Context,
			Module:      le.Module,
			FilePath:    le.FilePath,
			Recoverable: le.Recoverable,
		}
	}

	return &LabsheetError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType != ErrorTypeIO && errType != ErrorTypeInternal,
	}
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *LabsheetError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapGeneration wraps an error as a generation error for the given module
func WrapGeneration(err error, code, message, module string) *LabsheetError {
	le := Wrap(err, ErrorTypeGeneration, code, message)
	if le != nil {
		le.Module = module
		le.Recoverable = true
	}
	return le
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *LabsheetError {
	le := Wrap(err, ErrorTypeIO, code, message)
	if le != nil {
		le.Recoverable = false
	}
	return le
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var fve *FieldValidationError
	if errors.As(err, &fve) {
		return fve.Error()
	}

	var le *LabsheetError
	if errors.As(err, &le) {
		if le.Cause != nil {
			return fmt.Sprintf("%s: %v", le.Message, le.Cause)
		}
		return le.Message
	}

	return err.Error()
}

// GetErrorContext extracts context information from a LabsheetError
func GetErrorContext(err error) map[string]interface{} {
	var le *LabsheetError
	if errors.As(err, &le) {
		context := make(map[string]interface{})
		for k, v := range le.Context {
			context[k] = v
		}
		if le.Module != "" {
			context["module"] = le.Module
		}
		if le.FilePath != "" {
			context["file"] = le.FilePath
		}
		context["type"] = string(le.Type)
		context["code"] = le.Code
		context["recoverable"] = le.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// FirstError returns the first non-nil error from a list
func FirstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
