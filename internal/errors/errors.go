package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ProductionMode = os.Getenv("ENV") == "production" || os.Getenv("ENV") == "prod"

// Kind groups failures into the four classes callers usually branch on.
type Kind int

const (
	KindConnection Kind = iota + 1
	KindQuery
	KindConversion
	KindUsage
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindConversion:
		return "conversion"
	case KindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Errnum is the native error number reported by the server, 0 when none.
	Errnum int
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrConnectionFailed = &Error{Kind: KindConnection, Code: "C1001", Message: "connection failed"}
	ErrNotConnected     = &Error{Kind: KindConnection, Code: "C1002", Message: "not connected"}
	ErrTimeout          = &Error{Kind: KindConnection, Code: "C1003", Message: "operation timeout"}
	ErrConnectionClosed = &Error{Kind: KindConnection, Code: "C1004", Message: "connection closed"}

	ErrBadQuery    = &Error{Kind: KindQuery, Code: "Q2001", Message: "query failed"}
	ErrDuplicate   = &Error{Kind: KindQuery, Code: "Q2002", Message: "duplicate entry"}
	ErrUnsupported = &Error{Kind: KindQuery, Code: "Q2003", Message: "operation not supported by this server"}

	ErrBadConversion = &Error{Kind: KindConversion, Code: "V3001", Message: "bad conversion"}
	ErrNullValue     = &Error{Kind: KindConversion, Code: "V3002", Message: "value is NULL"}

	ErrLockFailed           = &Error{Kind: KindUsage, Code: "U4001", Message: "lock failed: connection already locked"}
	ErrEndOfResults         = &Error{Kind: KindUsage, Code: "U4002", Message: "end of results"}
	ErrBadFieldName         = &Error{Kind: KindUsage, Code: "U4003", Message: "unknown field name"}
	ErrBadIndex             = &Error{Kind: KindUsage, Code: "U4004", Message: "index out of range"}
	ErrObjectNotInitialized = &Error{Kind: KindUsage, Code: "U4005", Message: "object not initialized"}
	ErrStaleRow             = &Error{Kind: KindUsage, Code: "U4006", Message: "row is no longer valid"}
	ErrMissingParam         = &Error{Kind: KindUsage, Code: "U4007", Message: "missing template parameter"}
	ErrBadParamCount        = &Error{Kind: KindUsage, Code: "U4008", Message: "too many template parameters"}
	ErrBadOption            = &Error{Kind: KindUsage, Code: "U4009", Message: "bad option"}
	ErrBadTemplate          = &Error{Kind: KindUsage, Code: "U4010", Message: "bad query template"}
	ErrQueryTooLarge        = &Error{Kind: KindUsage, Code: "U4011", Message: "query text too large"}
)

type OperationType string

const (
	OpConnect OperationType = "Connect"
	OpExec    OperationType = "Exec"
	OpStore   OperationType = "Store"
	OpUse     OperationType = "Use"
	OpFetch   OperationType = "Fetch"
	OpPing    OperationType = "Ping"
	OpOption  OperationType = "Option"
	OpAdmin   OperationType = "Admin"
)

func New(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: sentinel.Message + ": " + fmt.Sprintf(format, args...),
	}
}

func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, cause: cause}
}

// KindOf reports the class of err, or 0 when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return KindConversion
	}
	return 0
}

// ErrnumOf returns the server error number attached to err, 0 when none.
func ErrnumOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Errnum
	}
	return 0
}

func IsConnection(err error) bool { return KindOf(err) == KindConnection }
func IsQuery(err error) bool      { return KindOf(err) == KindQuery }
func IsConversion(err error) bool { return KindOf(err) == KindConversion }
func IsUsage(err error) bool      { return KindOf(err) == KindUsage }

func IsEndOfResults(err error) bool {
	return errors.Is(err, ErrEndOfResults)
}

func IsLockFailed(err error) bool {
	return errors.Is(err, ErrLockFailed)
}

func isDuplicate(err error, errnum int) bool {
	if errnum == 1062 {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "duplicate entry") ||
		strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "23505")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded")
}

func isConnectionError(err error, errnum int) bool {
	// 2002-2013: client-side connection errors; 1045: access denied; 1049: unknown database.
	if (errnum >= 2002 && errnum <= 2013) || errnum == 1045 || errnum == 1049 {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "bad connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "invalid connection") ||
		strings.Contains(errStr, "access denied")
}

// MapDriverError classifies a native client failure. Failures during connect
// are always connection errors; later ones become query errors unless they
// look like a lost session.
func MapDriverError(err error, op OperationType, errnum int) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var out *Error
	switch {
	case op == OpConnect:
		out = Wrap(ErrConnectionFailed, err)
	case isTimeout(err):
		out = Wrap(ErrTimeout, err)
	case isConnectionError(err, errnum):
		out = Wrap(ErrConnectionFailed, err)
	case isDuplicate(err, errnum):
		out = Wrap(ErrDuplicate, err)
	default:
		out = Wrap(ErrBadQuery, err)
	}
	out.Errnum = errnum
	return out
}

func SanitizeError(err error) error {
	if err == nil {
		return nil
	}

	if !ProductionMode {
		return err
	}

	errMsg := err.Error()
	errMsg = sanitizeSQLDetails(errMsg)

	return fmt.Errorf("%s", errMsg)
}

func sanitizeSQLDetails(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"table", "column", "syntax", "constraint", "from", "where"} {
		if strings.Contains(lower, pattern) {
			return "database operation failed"
		}
	}
	return msg
}
