package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/internal/service"
)

func (f *fakeRequests) ListEnrollment(context.Context) ([]models.EnrollmentRequest, error) {
	return nil, nil
}

func (f *fakeRequests) ListPPS(context.Context) ([]models.PPSRequest, error) {
	return nil, nil
}

func newIntegrityHandler() *IntegrityHandler {
	integrity := service.NewIntegrityService(service.IntegrityServiceParams{
		Students: &fakeStudents{students: []models.Student{
			{ID: "s1", Legajo: "1", CreatedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
		}},
		Practices:   &fakePractices{},
		Launches:    &fakeLaunches{},
		Completions: &fakeRequests{},
		Enrollments: &fakeRequests{},
		PPS:         &fakeRequests{},
	})
	return NewIntegrityHandler(integrity, nil, service.NewExportService(), nil)
}

func TestIntegrityHandlerScan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newIntegrityHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/integrity/scan", nil)

	handler.Scan(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// The fixture's only student lacks an email.
	assert.Equal(t, float64(1), body.Meta["count"])
}

func TestIntegrityHandlerRemediateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newIntegrityHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/integrity/remediate",
		strings.NewReader(`{"code":"STUDENT_MISSING_EMAIL"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Remediate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntegrityHandlerRemediateManualRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newIntegrityHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/integrity/remediate",
		strings.NewReader(`{"code":"STUDENT_MISSING_EMAIL","table":"students","target_id":"s1","remediation":"manual"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Remediate(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
