package enum

import (
	"errors"
	"fmt"
)

// ErrUnknownCaseType is returned when parsing an unrecognized case type name.
var ErrUnknownCaseType = errors.New("unknown case type")

// CaseType represents the kind of moderation action a case records.
type CaseType int

const (
	// CaseTypeWarn indicates a formal warning with no platform-side effect.
	CaseTypeWarn CaseType = iota
	// CaseTypeMute indicates a communication timeout applied to the user.
	CaseTypeMute
	// CaseTypeKick indicates the user was removed from the guild.
	CaseTypeKick
	// CaseTypeBan indicates the user was banned from the guild.
	CaseTypeBan
	// CaseTypeUnmute indicates a mute was lifted, usually as a pardon.
	CaseTypeUnmute
	// CaseTypeUnban indicates a ban was lifted, usually as a pardon.
	CaseTypeUnban
)

var caseTypeNames = map[CaseType]string{
	CaseTypeWarn:   "Warn",
	CaseTypeMute:   "Mute",
	CaseTypeKick:   "Kick",
	CaseTypeBan:    "Ban",
	CaseTypeUnmute: "Unmute",
	CaseTypeUnban:  "Unban",
}

// String returns the human-readable name of the case type.
func (t CaseType) String() string {
	if name, ok := caseTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("CaseType(%d)", int(t))
}

// CaseTypeString parses a case type from its name.
func CaseTypeString(name string) (CaseType, error) {
	for t, n := range caseTypeNames {
		if n == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownCaseType, name)
}

// CanExpire reports whether cases of this type may carry an expiration.
// The set is closed on purpose so the mapping stays statically checkable.
func (t CaseType) CanExpire() bool {
	switch t {
	case CaseTypeMute, CaseTypeBan:
		return true
	case CaseTypeWarn, CaseTypeKick, CaseTypeUnmute, CaseTypeUnban:
		return false
	default:
		return false
	}
}

// PardonType returns the case type that reverses this one, if any.
// Only Ban and Mute have a reversal; everything else is not pardonable.
func (t CaseType) PardonType() (CaseType, bool) {
	switch t {
	case CaseTypeBan:
		return CaseTypeUnban, true
	case CaseTypeMute:
		return CaseTypeUnmute, true
	default:
		return 0, false
	}
}
