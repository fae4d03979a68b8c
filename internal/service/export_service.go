package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/pkg/export"
)

// ExportService shapes engine results into tabular reports.
type ExportService struct{}

// NewExportService constructs an ExportService.
func NewExportService() *ExportService {
	return &ExportService{}
}

// SnapshotTable renders the snapshot's active population as a table.
func (s *ExportService) SnapshotTable(snapshot *models.Snapshot) export.Table {
	table := export.Table{
		Title:   "Active students at " + snapshot.Cutoff.UTC().Format("2006-01-02"),
		Columns: []string{"Legajo", "Name", "Hours", "Placement"},
	}
	withoutPlacement := make(map[string]struct{}, len(snapshot.WithoutPlacement))
	for _, summary := range snapshot.WithoutPlacement {
		withoutPlacement[summary.ID] = struct{}{}
	}
	for _, summary := range snapshot.Active {
		placement := "yes"
		if _, ok := withoutPlacement[summary.ID]; ok {
			placement = "none"
		}
		table.Rows = append(table.Rows, []string{
			summary.Legajo,
			summary.FullName,
			strconv.Itoa(summary.Hours),
			placement,
		})
	}
	return table
}

// IssuesTable renders a scan result as a table.
func (s *ExportService) IssuesTable(issues []models.Issue, generatedAt time.Time) export.Table {
	table := export.Table{
		Title:   "Integrity scan " + generatedAt.UTC().Format("2006-01-02"),
		Columns: []string{"Severity", "Code", "Table", "Target", "Remediation", "Description"},
	}
	for _, issue := range issues {
		target := issue.TargetID
		if len(issue.RelatedIDs) > 0 {
			target = target + " (" + strings.Join(issue.RelatedIDs, ", ") + ")"
		}
		table.Rows = append(table.Rows, []string{
			issue.Severity,
			issue.Code,
			issue.Table,
			target,
			issue.Remediation,
			issue.Description,
		})
	}
	return table
}
