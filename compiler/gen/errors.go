package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/cmpby/compiler/load"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a type the generator cannot describe.
	ErrInvalidSchema = errors.New("cmpby: invalid schema")
	// ErrInvalidAnnotation indicates a malformed or conflicting selection directive.
	ErrInvalidAnnotation = errors.New("cmpby: invalid annotation")
	// ErrInvalidPlan indicates a key selection that cannot be synthesized.
	ErrInvalidPlan = errors.New("cmpby: invalid plan")
	// ErrEmitFailed indicates generated code that would not compile.
	ErrEmitFailed = errors.New("cmpby: emit failed")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("cmpby: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("cmpby: code generation failed")
)

// Positioned is implemented by errors that point at a source position.
type Positioned interface {
	error
	Position() load.Pos
}

// SchemaError reports a type declaration of unsupported shape.
type SchemaError struct {
	Type    string
	Pos     load.Pos
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("cmpby: schema error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// Position returns the position of the declaration.
func (e *SchemaError) Position() load.Pos { return e.Pos }

// NewSchemaError creates a new SchemaError.
func NewSchemaError(typeName string, pos load.Pos, message string, cause error) *SchemaError {
	return &SchemaError{
		Type:    typeName,
		Pos:     pos,
		Message: message,
		Cause:   cause,
	}
}

// AnnotationError reports a selection directive that cannot be resolved.
type AnnotationError struct {
	Type    string
	Target  string // field, accessor or directive the error is about
	Pos     load.Pos
	Message string
}

// Error implements the error interface.
func (e *AnnotationError) Error() string {
	var b strings.Builder
	b.WriteString("cmpby: annotation error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Target != "" {
		b.WriteString(" at ")
		b.WriteString(e.Target)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for AnnotationError.
func (e *AnnotationError) Is(target error) bool {
	return target == ErrInvalidAnnotation
}

// Position returns the position of the offending directive.
func (e *AnnotationError) Position() load.Pos { return e.Pos }

// NewAnnotationError creates a new AnnotationError.
func NewAnnotationError(typeName, target string, pos load.Pos, format string, args ...any) *AnnotationError {
	return &AnnotationError{
		Type:    typeName,
		Target:  target,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// PlanError reports a comparison key that cannot take part in a requested
// capability.
type PlanError struct {
	Type    string
	Key     string
	Pos     load.Pos
	Message string
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	var b strings.Builder
	b.WriteString("cmpby: plan error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Key != "" {
		b.WriteString(" key ")
		b.WriteString(e.Key)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for PlanError.
func (e *PlanError) Is(target error) bool {
	return target == ErrInvalidPlan
}

// Position returns the position of the key.
func (e *PlanError) Position() load.Pos { return e.Pos }

// NewPlanError creates a new PlanError.
func NewPlanError(typeName, key string, pos load.Pos, format string, args ...any) *PlanError {
	return &PlanError{
		Type:    typeName,
		Key:     key,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// EmitError reports generated code that would not compile, such as a type
// parameter whose declared constraint is too weak for a generated method.
type EmitError struct {
	Type    string
	Param   string
	Pos     load.Pos
	Message string
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	var b strings.Builder
	b.WriteString("cmpby: emit error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Param != "" {
		b.WriteString(" type parameter ")
		b.WriteString(e.Param)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for EmitError.
func (e *EmitError) Is(target error) bool {
	return target == ErrEmitFailed
}

// Position returns the position of the declaration.
func (e *EmitError) Position() load.Pos { return e.Pos }

// NewEmitError creates a new EmitError.
func NewEmitError(typeName, param string, pos load.Pos, format string, args ...any) *EmitError {
	return &EmitError{
		Type:    typeName,
		Param:   param,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("cmpby: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("cmpby: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "load", "render", "format", "write"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("cmpby: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsAnnotationError reports whether the error is an AnnotationError.
func IsAnnotationError(err error) bool {
	var annErr *AnnotationError
	return errors.As(err, &annErr)
}

// IsPlanError reports whether the error is a PlanError.
func IsPlanError(err error) bool {
	var planErr *PlanError
	return errors.As(err, &planErr)
}

// IsEmitError reports whether the error is an EmitError.
func IsEmitError(err error) bool {
	var emitErr *EmitError
	return errors.As(err, &emitErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
