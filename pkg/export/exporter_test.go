package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Title:  "Laporan Harian",
		Fields: []Field{{Label: "Mitra", Value: "Acme"}, {Label: "Shift", Value: "Shift1"}},
		Sections: []Section{{
			Title: "Aktivitas",
			Data: Dataset{
				Headers: []string{"No", "Kategori"},
				Rows:    []map[string]string{{"No": "1", "Kategori": "Galian, tahap 1"}},
			},
		}},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDocument())
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Mitra", "Acme"},
		{"Shift", "Shift1"},
		{"Aktivitas"},
		{"No", "Kategori"},
		{"1", "Galian, tahap 1"},
	}, records)
}

func TestExportersRejectHeaderlessSections(t *testing.T) {
	doc := Document{Sections: []Section{{Title: "empty"}}}
	_, err := NewCSVExporter().Render(doc)
	require.Error(t, err)
	_, err = NewPDFExporter().Render(doc)
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
