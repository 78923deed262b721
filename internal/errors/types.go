// Package errors provides the categorised error type used across labsheet.
//
// Every failure that crosses a package boundary is a *LabsheetError carrying
// a category, a stable code and whether the user can recover by retrying.
// The categories mirror how the CLI reacts: configuration problems route the
// user back to setup, validation problems re-prompt, template problems fall
// back to the default layout, and generation problems are reported and
// abandoned.
package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeTemplate   ErrorType = "template"
	ErrorTypeGeneration ErrorType = "generation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// LabsheetError is a structured error type with context.
type LabsheetError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Module      string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *LabsheetError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Module != "" {
		parts = append(parts, "module:"+e.Module)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LabsheetError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LabsheetError of the same type and code.
func (e *LabsheetError) Is(target error) bool {
	var t *LabsheetError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *LabsheetError) WithContext(key string, value interface{}) *LabsheetError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file the error refers to.
func (e *LabsheetError) WithPath(filePath string) *LabsheetError {
	e.FilePath = filePath

	return e
}

// WithModule records the module code the error refers to.
func (e *LabsheetError) WithModule(code string) *LabsheetError {
	e.Module = code

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *LabsheetError {
	return &LabsheetError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error. Configuration errors are
// recoverable: the user can always re-run setup.
func NewConfigError(code, message string, cause error) *LabsheetError {
	return &LabsheetError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewTemplateError creates a template resolution error.
func NewTemplateError(code, message string) *LabsheetError {
	return &LabsheetError{
		Type:        ErrorTypeTemplate,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewGenerationError creates a document generation error.
func NewGenerationError(code, message string, cause error) *LabsheetError {
	return &LabsheetError{
		Type:        ErrorTypeGeneration,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *LabsheetError {
	return &LabsheetError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *LabsheetError {
	return &LabsheetError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var le *LabsheetError
	if errors.As(err, &le) {
		return le.Recoverable
	}

	return false
}

func isType(err error, t ErrorType) bool {
	var le *LabsheetError
	if errors.As(err, &le) {
		return le.Type == t
	}

	return false
}

// IsValidationError checks if an error is validation-related.
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool { return isType(err, ErrorTypeConfig) }

// IsTemplateError checks if an error is template-related.
func IsTemplateError(err error) bool { return isType(err, ErrorTypeTemplate) }

// IsGenerationError checks if an error happened while rendering a document.
func IsGenerationError(err error) bool { return isType(err, ErrorTypeGeneration) }

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler logs errors at a level chosen by their category.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with the fields from GetErrorContext. Validation, config
// and template errors are logged as warnings.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var le *LabsheetError
	if !errors.As(err, &le) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	info := GetErrorContext(le)
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		fields = append(fields, k, info[k])
	}

	switch le.Type {
	case ErrorTypeValidation, ErrorTypeConfig, ErrorTypeTemplate:
		h.logger.Warn(ctx, err, "Recoverable error occurred", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}

// Common error codes.
const (
	ErrCodeValidationFailed  = "ERR_VALIDATION_FAILED"
	ErrCodeConfigMissing     = "ERR_CONFIG_MISSING"
	ErrCodeConfigCorrupt     = "ERR_CONFIG_CORRUPT"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeTemplateNotFound  = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeNoDefaultTemplate = "ERR_NO_DEFAULT_TEMPLATE"
	ErrCodeLogoRequired      = "ERR_LOGO_REQUIRED"
	ErrCodeLogoInvalid       = "ERR_LOGO_INVALID"
	ErrCodeModuleNotFound    = "ERR_MODULE_NOT_FOUND"
	ErrCodeDuplicateModule   = "ERR_DUPLICATE_MODULE"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodeOutputDir         = "ERR_OUTPUT_DIR"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed       = "ERR_WRITE_FAILED"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// FieldValidationError describes one invalid input field.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("%s: %s", fve.FieldName, fve.ErrorMessage)
}

// ToLabsheetError converts the field validation error to a LabsheetError.
func (fve *FieldValidationError) ToLabsheetError() *LabsheetError {
	return NewValidationError(
		"ERR_FIELD_"+strings.ToUpper(strings.ReplaceAll(fve.FieldName, " ", "_")),
		fve.ErrorMessage,
	).WithContext("field", fve.FieldName).WithContext("value", fve.FieldValue)
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(field string, value interface{}, message string) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []*FieldValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(field string, value interface{}, message string) {
	vec.Errors = append(vec.Errors, NewFieldValidationError(field, value, message))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToLabsheetError converts the collection to a single validation error, or nil.
func (vec *ValidationErrorCollection) ToLabsheetError() *LabsheetError {
	if !vec.HasErrors() {
		return nil
	}

	messages := make([]string, 0, len(vec.Errors))
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.FieldName] = err.FieldValue
	}

	return &LabsheetError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(id string) *LabsheetError {
	return NewTemplateError(ErrCodeTemplateNotFound, "template not found: "+id).
		WithContext("template", id)
}

// ErrModuleNotFound creates a module not found error.
func ErrModuleNotFound(code string) *LabsheetError {
	return NewValidationError(ErrCodeModuleNotFound, "no module with code "+code).
		WithModule(code)
}
