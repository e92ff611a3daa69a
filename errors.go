package sqlpp

import "github.com/carlosnayan/sqlpp/internal/errors"

// Error is the single error type returned by sqlpp. Compare with errors.Is
// against the sentinels below.
type Error = errors.Error

type ConversionError = errors.ConversionError

// ErrorMode selects between returned errors and sentinel values.
type ErrorMode = errors.Mode

const (
	ReturnErrors = errors.ReturnErrors
	Sentinel     = errors.Sentinel
)

var (
	ErrConnectionFailed     = errors.ErrConnectionFailed
	ErrNotConnected         = errors.ErrNotConnected
	ErrTimeout              = errors.ErrTimeout
	ErrConnectionClosed     = errors.ErrConnectionClosed
	ErrBadQuery             = errors.ErrBadQuery
	ErrDuplicate            = errors.ErrDuplicate
	ErrUnsupported          = errors.ErrUnsupported
	ErrBadConversion        = errors.ErrBadConversion
	ErrNullValue            = errors.ErrNullValue
	ErrLockFailed           = errors.ErrLockFailed
	ErrEndOfResults         = errors.ErrEndOfResults
	ErrBadFieldName         = errors.ErrBadFieldName
	ErrBadIndex             = errors.ErrBadIndex
	ErrObjectNotInitialized = errors.ErrObjectNotInitialized
	ErrStaleRow             = errors.ErrStaleRow
	ErrMissingParam         = errors.ErrMissingParam
	ErrBadParamCount        = errors.ErrBadParamCount
	ErrBadOption            = errors.ErrBadOption
	ErrBadTemplate          = errors.ErrBadTemplate
	ErrQueryTooLarge        = errors.ErrQueryTooLarge
)

func IsConnection(err error) bool { return errors.IsConnection(err) }
func IsQuery(err error) bool      { return errors.IsQuery(err) }
func IsConversion(err error) bool { return errors.IsConversion(err) }
func IsUsage(err error) bool      { return errors.IsUsage(err) }
