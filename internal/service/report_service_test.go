package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vanik/internal/domain"
	"vanik/internal/port"
	"vanik/internal/service"
	"vanik/mocks"
)

type reportFixture struct {
	invoices *mocks.MockInvoiceRepo
	orgs     *mocks.MockOrgRepo
	storage  *mocks.MockObjectStorage
	svc      service.ReportService
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		invoices: new(mocks.MockInvoiceRepo),
		orgs:     new(mocks.MockOrgRepo),
		storage:  new(mocks.MockObjectStorage),
	}
	f.svc = service.NewReportService(f.invoices, f.orgs, f.storage, "vanik-reports")
	return f
}

func TestReportService_GSTSummary(t *testing.T) {
	f := newReportFixture()
	orgID := uuid.New()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := []domain.TaxRateTotal{
		{
			GSTRate:      decimal.NewFromInt(18),
			TaxableValue: decimal.NewFromInt(1000),
			CGST:         decimal.NewFromInt(90),
			SGST:         decimal.NewFromInt(90),
		},
	}

	f.orgs.On("GetByID", mock.Anything, orgID).
		Return(&domain.Organization{ID: orgID, Name: "Sharma Traders"}, nil)
	f.invoices.On("TaxTotalsByRate", mock.Anything, orgID, from, to).
		Return(rows, nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "vanik-reports" &&
			in.ContentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" &&
			in.Size > 0
	})).Return(&port.UploadOutput{Location: "s3://vanik-reports/x"}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, "vanik-reports", mock.Anything, int64(900)).
		Return("https://signed.example/report.xlsx", nil)

	result, err := f.svc.GSTSummary(context.Background(), orgID, from, to)
	require.NoError(t, err)

	assert.Equal(t, "https://signed.example/report.xlsx", result.DownloadURL)
	assert.Equal(t, rows, result.Rows)
	assert.Contains(t, result.ObjectKey, "reports/"+orgID.String())
	assert.Contains(t, result.ObjectKey, "gst-summary-20250101-20250201")

	// Upload and presign hit the same object.
	upload := f.storage.Calls[findCall(t, f.storage.Calls, "Upload")]
	uploadKey := upload.Arguments.Get(1).(port.UploadInput).Key
	presign := f.storage.Calls[findCall(t, f.storage.Calls, "GetPresignedURL")]
	assert.Equal(t, uploadKey, presign.Arguments.Get(2).(string))
}

func TestReportService_GSTSummary_InvalidPeriod(t *testing.T) {
	f := newReportFixture()
	orgID := uuid.New()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.GSTSummary(context.Background(), orgID, at, at)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period end must be after start")
	f.orgs.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestReportService_GSTSummary_UploadFailure(t *testing.T) {
	f := newReportFixture()
	orgID := uuid.New()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	f.orgs.On("GetByID", mock.Anything, orgID).
		Return(&domain.Organization{ID: orgID, Name: "Sharma Traders"}, nil)
	f.invoices.On("TaxTotalsByRate", mock.Anything, orgID, from, to).
		Return([]domain.TaxRateTotal{}, nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).
		Return(nil, errors.New("bucket unreachable"))

	_, err := f.svc.GSTSummary(context.Background(), orgID, from, to)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading workbook")
	f.storage.AssertNotCalled(t, "GetPresignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
