package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/export"
)

// ExportFormat enumerates the renderings of a report.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type reportReader interface {
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Laporan, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportResult is a rendered report ready to be served as a download.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders committed reports as CSV or PDF.
type ExportService struct {
	reports reportReader
	csv     documentRenderer
	pdf     documentRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the default exporters.
func NewExportService(reports reportReader, csv, pdf documentRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger}
}

// Render loads the report the caller may read and renders it in the requested format.
func (s *ExportService) Render(ctx context.Context, id string, format ExportFormat, actor *models.JWTClaims) (*ExportResult, error) {
	format = ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = ExportFormatCSV
	}
	var (
		renderer    documentRenderer
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, invalid(fmt.Sprintf("unsupported export format %q", format))
	}

	laporan, err := s.reports.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(reportDocument(laporan))
	if err != nil {
		s.logger.Error("report export failed", zap.String("id", id), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render report")
	}
	return &ExportResult{
		FileName:    exportFileName(laporan, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func reportDocument(l *models.Laporan) export.Document {
	roster := export.Dataset{Headers: []string{"No", "Nama", "Jabatan", "Keterangan"}}
	for i, tk := range l.TenagaKerja {
		roster.Rows = append(roster.Rows, map[string]string{
			"No":         strconv.Itoa(i + 1),
			"Nama":       tk.Nama,
			"Jabatan":    tk.Jabatan,
			"Keterangan": tk.Keterangan,
		})
	}
	activities := export.Dataset{Headers: []string{"No", "Kategori", "Deskripsi", "Foto Sebelum", "Foto Sesudah"}}
	for i, a := range l.Aktivitas {
		activities.Rows = append(activities.Rows, map[string]string{
			"No":           strconv.Itoa(i + 1),
			"Kategori":     a.Kategori,
			"Deskripsi":    a.Deskripsi,
			"Foto Sebelum": deref(a.FotoSebelum),
			"Foto Sesudah": deref(a.FotoSesudah),
		})
	}
	return export.Document{
		Title: "Laporan Harian",
		Fields: []export.Field{
			{Label: "ID", Value: l.ID},
			{Label: "Mitra", Value: l.MitraNama},
			{Label: "Nomor Kontrak", Value: l.NomorKontrak},
			{Label: "Pekerjaan", Value: l.NamaPekerjaan},
			{Label: "Tanggal", Value: l.Tanggal.String()},
			{Label: "Shift", Value: string(l.Shift)},
		},
		Sections: []export.Section{
			{Title: "Tenaga Kerja", Data: roster},
			{Title: "Aktivitas", Data: activities},
		},
	}
}

func exportFileName(l *models.Laporan, format ExportFormat) string {
	return fmt.Sprintf("laporan_%s_%s_%s.%s", sanitizeFilename(l.NomorKontrak), l.Tanggal.String(), strings.ToLower(string(l.Shift)), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
