package errors

// Mode selects how failing operations report back to the caller.
type Mode int

const (
	// ReturnErrors hands every failure back as an error value.
	ReturnErrors Mode = iota
	// Sentinel swallows the error into the connection state and returns
	// an invalid/empty value; callers consult Error()/Errnum() afterwards.
	Sentinel
)

func (m Mode) String() string {
	if m == Sentinel {
		return "sentinel"
	}
	return "errors"
}

// ParseMode accepts "errors", "throw", "sentinel" and "codes".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "errors", "throw":
		return ReturnErrors, true
	case "sentinel", "codes":
		return Sentinel, true
	}
	return ReturnErrors, false
}

// Filter returns nil in Sentinel mode and err otherwise.
func (m Mode) Filter(err error) error {
	if m == Sentinel {
		return nil
	}
	return err
}
