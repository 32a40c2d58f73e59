package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vanik/internal/domain"
	"vanik/internal/export"
	"vanik/internal/port"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportURLExpiry  = int64(15 * 60)
	reportKeyPattern = "reports/%s/gst-summary-%s-%s-%s.xlsx"
)

// GSTSummaryResult points at a generated workbook parked in object storage.
type GSTSummaryResult struct {
	Rows        []domain.TaxRateTotal `json:"rows"`
	DownloadURL string                `json:"download_url"`
	ObjectKey   string                `json:"object_key"`
}

// ReportService generates period reports over posted documents.
type ReportService interface {
	// GSTSummary aggregates posted invoices of [from, to) by GST rate,
	// renders the workbook and uploads it, returning a presigned link.
	GSTSummary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (*GSTSummaryResult, error)
}

type reportService struct {
	invoices port.InvoiceRepository
	orgs     port.OrgRepository
	storage  port.ObjectStorage
	bucket   string
	now      func() time.Time
}

// NewReportService creates a new ReportService implementation.
func NewReportService(invoices port.InvoiceRepository, orgs port.OrgRepository, storage port.ObjectStorage, bucket string) ReportService {
	return &reportService{
		invoices: invoices,
		orgs:     orgs,
		storage:  storage,
		bucket:   bucket,
		now:      time.Now,
	}
}

func (s *reportService) GSTSummary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (*GSTSummaryResult, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("report.GSTSummary: period end must be after start")
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("report.GSTSummary: loading org: %w", err)
	}

	rows, err := s.invoices.TaxTotalsByRate(ctx, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("report.GSTSummary: aggregating: %w", err)
	}

	workbook, err := export.GSTRSummary(org.Name, from, to, rows)
	if err != nil {
		return nil, fmt.Errorf("report.GSTSummary: rendering workbook: %w", err)
	}

	key := fmt.Sprintf(reportKeyPattern,
		orgID, from.Format("20060102"), to.Format("20060102"), s.now().Format("150405"))
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(workbook),
		ContentType: xlsxContentType,
		Size:        int64(len(workbook)),
	}); err != nil {
		return nil, fmt.Errorf("report.GSTSummary: uploading workbook: %w", err)
	}

	url, err := s.storage.GetPresignedURL(ctx, s.bucket, key, reportURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("report.GSTSummary: presigning: %w", err)
	}

	return &GSTSummaryResult{Rows: rows, DownloadURL: url, ObjectKey: key}, nil
}
