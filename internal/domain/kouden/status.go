package kouden

import (
	"strings"

	"github.com/kouden/backend/internal/domain/shared"
)

// ReturnStatus describes where a return-gift obligation stands
type ReturnStatus string

const (
	ReturnStatusPending         ReturnStatus = "PENDING"
	ReturnStatusPartialReturned ReturnStatus = "PARTIAL_RETURNED"
	ReturnStatusCompleted       ReturnStatus = "COMPLETED"
	ReturnStatusNotRequired     ReturnStatus = "NOT_REQUIRED"
)

// AllReturnStatuses lists every status in display order
var AllReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusPartialReturned,
	ReturnStatusCompleted,
	ReturnStatusNotRequired,
}

// IsValid reports whether s is a known status
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusPartialReturned, ReturnStatusCompleted, ReturnStatusNotRequired:
		return true
	}
	return false
}

func (s ReturnStatus) String() string {
	return string(s)
}

// ParseReturnStatus parses a status name case-insensitively.
func ParseReturnStatus(raw string) (ReturnStatus, error) {
	s := ReturnStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidFieldValue, "unknown return status: "+raw)
	}
	return s, nil
}

// IsNormalTransition reports whether from -> to follows the usual workflow.
// Status is descriptive, so nothing enforces this; callers use it for warnings.
func IsNormalTransition(from, to ReturnStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case ReturnStatusPending:
		return to == ReturnStatusPartialReturned || to == ReturnStatusCompleted || to == ReturnStatusNotRequired
	case ReturnStatusPartialReturned:
		return to == ReturnStatusCompleted
	}
	return false
}

// AttendanceType records how the giver took part in the funeral
type AttendanceType string

const (
	AttendanceFuneral         AttendanceType = "FUNERAL"
	AttendanceCondolenceVisit AttendanceType = "CONDOLENCE_VISIT"
	AttendanceAbsent          AttendanceType = "ABSENT"
)

// IsValid reports whether t is a known attendance type
func (t AttendanceType) IsValid() bool {
	switch t {
	case AttendanceFuneral, AttendanceCondolenceVisit, AttendanceAbsent:
		return true
	}
	return false
}

// ParseAttendanceType parses an attendance type name case-insensitively.
func ParseAttendanceType(raw string) (AttendanceType, error) {
	t := AttendanceType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidFieldValue, "unknown attendance type: "+raw)
	}
	return t, nil
}
