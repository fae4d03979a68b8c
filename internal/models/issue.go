package models

// Issue severities.
const (
	SeverityCritical   = "critical"
	SeverityWarning    = "warning"
	SeveritySuggestion = "suggestion"
)

// Remediation kinds. Delete and manual remediations are executed by the
// caller; only autofix issues are applied by the engine itself.
const (
	RemediationDelete  = "delete"
	RemediationManual  = "manual"
	RemediationAutoFix = "autofix"
)

// Issue codes emitted by the integrity scanner. Codes are stable: the
// remediation endpoint dispatches on them.
const (
	IssueLaunchMissingName      = "LAUNCH_MISSING_NAME"
	IssueLaunchMissingStartDate = "LAUNCH_MISSING_START_DATE"
	IssueLaunchNameWhitespace   = "LAUNCH_NAME_WHITESPACE"
	IssueLaunchDatesInverted    = "LAUNCH_DATES_INVERTED"
	IssueLaunchStalePending     = "LAUNCH_STALE_PENDING"
	IssueStudentBlankLegajo     = "STUDENT_BLANK_LEGAJO"
	IssueStudentMissingEmail    = "STUDENT_MISSING_EMAIL"
	IssueStudentDuplicateLegajo = "STUDENT_DUPLICATE_LEGAJO"
	IssuePracticeUnlinked       = "PRACTICE_UNLINKED"
	IssuePracticeOrphanStudent  = "PRACTICE_ORPHAN_STUDENT"
	IssueRequestOrphanStudent   = "REQUEST_ORPHAN_STUDENT"
)

// Issue is a single integrity finding. Issues are data, not faults: scanning
// a broken dataset succeeds and returns them.
type Issue struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Severity    string   `json:"severity"`
	Table       string   `json:"table"`
	TargetID    string   `json:"target_id"`
	RelatedIDs  []string `json:"related_ids,omitempty"`
	Remediation string   `json:"remediation"`
	Description string   `json:"description"`
}
