package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pps-admin-api/internal/models"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
)

type enrollmentLister interface {
	ListEnrollment(ctx context.Context) ([]models.EnrollmentRequest, error)
}

type ppsLister interface {
	ListPPS(ctx context.Context) ([]models.PPSRequest, error)
}

type launchNameFixer interface {
	UpdateName(ctx context.Context, id, name string) error
}

type mergeExecutor interface {
	Execute(ctx context.Context, legajo string) (*models.MergeResult, error)
}

// IntegrityService runs the stateless rule set over one bulk read of every
// collection and dispatches approved remediations.
type IntegrityService struct {
	students    studentLister
	practices   practiceLister
	launches    launchLister
	completions completionLister
	enrollments enrollmentLister
	pps         ppsLister
	launchFixer launchNameFixer
	merger      mergeExecutor
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// IntegrityServiceParams groups constructor dependencies.
type IntegrityServiceParams struct {
	Students    studentLister
	Practices   practiceLister
	Launches    launchLister
	Completions completionLister
	Enrollments enrollmentLister
	PPS         ppsLister
	LaunchFixer launchNameFixer
	Merger      mergeExecutor
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// NewIntegrityService constructs an IntegrityService.
func NewIntegrityService(params IntegrityServiceParams) *IntegrityService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityService{
		students:    params.Students,
		practices:   params.Practices,
		launches:    params.Launches,
		completions: params.Completions,
		enrollments: params.Enrollments,
		pps:         params.PPS,
		launchFixer: params.LaunchFixer,
		merger:      params.Merger,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Scan executes every rule over a fresh bulk read and returns the typed
// issues. Scanning a broken dataset succeeds: issues are data, not faults.
func (s *IntegrityService) Scan(ctx context.Context) ([]models.Issue, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read students")
	}
	practices, err := s.practices.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read practices")
	}
	launches, err := s.launches.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read launches")
	}
	enrollments, err := s.enrollments.ListEnrollment(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read enrollment requests")
	}
	completions, err := s.completions.ListCompletion(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read completion requests")
	}
	ppsRequests, err := s.pps.ListPPS(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read pps requests")
	}

	start := time.Now()
	issues := ScanIssues(s.now(), students, practices, launches, enrollments, completions, ppsRequests)
	if s.metrics != nil {
		s.metrics.ObserveEvaluation("scan", time.Since(start))
		bySeverity := map[string]int{
			models.SeverityCritical:   0,
			models.SeverityWarning:    0,
			models.SeveritySuggestion: 0,
		}
		for _, issue := range issues {
			bySeverity[issue.Severity]++
		}
		s.metrics.RecordScanResults(bySeverity)
	}
	return issues, nil
}

// ApplyRemediation executes an auto-fix issue. Delete and manual
// remediations are the caller's responsibility and are rejected here.
func (s *IntegrityService) ApplyRemediation(ctx context.Context, issue models.Issue) (interface{}, error) {
	if issue.Remediation != models.RemediationAutoFix {
		return nil, appErrors.Clone(appErrors.ErrManualHandoff,
			fmt.Sprintf("issue %s requires %s remediation by the caller", issue.Code, issue.Remediation))
	}

	switch issue.Code {
	case models.IssueLaunchNameWhitespace:
		if err := s.trimLaunchName(ctx, issue.TargetID); err != nil {
			return nil, err
		}
		s.invalidate(ctx)
		return nil, nil
	case models.IssueStudentDuplicateLegajo:
		result, err := s.merger.Execute(ctx, issue.TargetID)
		if err != nil {
			return nil, err
		}
		s.invalidate(ctx)
		return result, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no auto-fix for issue code %s", issue.Code))
	}
}

func (s *IntegrityService) trimLaunchName(ctx context.Context, launchID string) error {
	launches, err := s.launches.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read launches")
	}
	for _, launch := range launches {
		if launch.ID != launchID {
			continue
		}
		trimmed := strings.TrimSpace(launch.Name)
		if trimmed == launch.Name {
			return nil
		}
		if err := s.launchFixer.UpdateName(ctx, launch.ID, trimmed); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to trim launch name")
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrNotFound, "launch not found")
}

func (s *IntegrityService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "engine:*"); err != nil {
		s.logger.Warn("invalidate engine cache", zap.Error(err))
	}
}

// ScanIssues applies every rule in a fixed order over the in-memory data.
// Rules are independent and order-insensitive; issue IDs are derived from
// their content so two scans of the same state are byte-identical.
func ScanIssues(now time.Time, students []models.Student, practices []models.Practice, launches []models.Launch, enrollments []models.EnrollmentRequest, completions []models.CompletionRequest, ppsRequests []models.PPSRequest) []models.Issue {
	var issues []models.Issue
	add := func(code, severity, table, targetID, remediation, description string, related ...string) {
		issues = append(issues, models.Issue{
			ID:          issueID(code, table, targetID),
			Code:        code,
			Severity:    severity,
			Table:       table,
			TargetID:    targetID,
			RelatedIDs:  related,
			Remediation: remediation,
			Description: description,
		})
	}

	for _, launch := range launches {
		if strings.TrimSpace(launch.Name) == "" {
			add(models.IssueLaunchMissingName, models.SeverityCritical, "launches", launch.ID,
				models.RemediationDelete, "launch has no name")
		}
		if launch.StartDate == nil {
			add(models.IssueLaunchMissingStartDate, models.SeverityCritical, "launches", launch.ID,
				models.RemediationDelete, "launch has no start date")
		}
		if launch.Name != "" && launch.Name != strings.TrimSpace(launch.Name) {
			add(models.IssueLaunchNameWhitespace, models.SeveritySuggestion, "launches", launch.ID,
				models.RemediationAutoFix, fmt.Sprintf("launch name %q has surrounding whitespace", launch.Name))
		}
		if launch.StartDate != nil && launch.EndDate != nil && launch.EndDate.Before(*launch.StartDate) {
			add(models.IssueLaunchDatesInverted, models.SeverityWarning, "launches", launch.ID,
				models.RemediationManual, "launch end date precedes its start date")
		}
		if launch.EndDate != nil && launch.EndDate.Before(now) && launch.ManagementStatus == models.LaunchStatusPendingManagement {
			add(models.IssueLaunchStalePending, models.SeveritySuggestion, "launches", launch.ID,
				models.RemediationManual, "launch is past its end date but still pending management")
		}
	}

	byLegajo := make(map[string][]string)
	known := make(map[string]struct{}, len(students))
	for _, student := range students {
		known[student.ID] = struct{}{}
		legajo := strings.TrimSpace(student.Legajo)
		if legajo == "" {
			// A blank key is recoverable by assigning one, so this is not a
			// delete remediation.
			add(models.IssueStudentBlankLegajo, models.SeverityCritical, "students", student.ID,
				models.RemediationManual, "student has a blank legajo")
		} else {
			byLegajo[legajo] = append(byLegajo[legajo], student.ID)
		}
		if student.Email == nil || strings.TrimSpace(*student.Email) == "" {
			add(models.IssueStudentMissingEmail, models.SeverityWarning, "students", student.ID,
				models.RemediationManual, "student has no contact email")
		}
	}

	duplicates := make([]string, 0)
	for legajo, ids := range byLegajo {
		if len(ids) >= 2 {
			duplicates = append(duplicates, legajo)
		}
	}
	sort.Strings(duplicates)
	for _, legajo := range duplicates {
		add(models.IssueStudentDuplicateLegajo, models.SeverityCritical, "students", legajo,
			models.RemediationAutoFix,
			fmt.Sprintf("%d students share legajo %q", len(byLegajo[legajo]), legajo),
			byLegajo[legajo]...)
	}

	for _, practice := range practices {
		if practice.StudentID == nil {
			if strings.TrimSpace(practice.StudentName) == "" {
				add(models.IssuePracticeUnlinked, models.SeverityCritical, "practices", practice.ID,
					models.RemediationManual, "practice has no student link and no fallback name")
			}
			continue
		}
		if _, ok := known[*practice.StudentID]; !ok {
			add(models.IssuePracticeOrphanStudent, models.SeverityCritical, "practices", practice.ID,
				models.RemediationManual, fmt.Sprintf("practice references missing student %s", *practice.StudentID))
		}
	}

	for _, req := range enrollments {
		if req.StudentID == nil {
			continue
		}
		if _, ok := known[*req.StudentID]; !ok {
			add(models.IssueRequestOrphanStudent, models.SeverityCritical, "enrollment_requests", req.ID,
				models.RemediationManual, fmt.Sprintf("enrollment request references missing student %s", *req.StudentID))
		}
	}
	for _, req := range completions {
		if req.StudentID == nil {
			continue
		}
		if _, ok := known[*req.StudentID]; !ok {
			add(models.IssueRequestOrphanStudent, models.SeverityCritical, "completion_requests", req.ID,
				models.RemediationManual, fmt.Sprintf("completion request references missing student %s", *req.StudentID))
		}
	}
	for _, req := range ppsRequests {
		if req.StudentID == nil {
			continue
		}
		if _, ok := known[*req.StudentID]; !ok {
			add(models.IssueRequestOrphanStudent, models.SeverityCritical, "pps_requests", req.ID,
				models.RemediationManual, fmt.Sprintf("pps request references missing student %s", *req.StudentID))
		}
	}

	return issues
}

// issueID derives a stable identifier from the issue's identity so repeated
// scans of an unchanged dataset return identical sets.
func issueID(code, table, targetID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(code+":"+table+":"+targetID)).String()
}
