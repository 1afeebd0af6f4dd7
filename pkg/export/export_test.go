package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(rows int) Dataset {
	data := Dataset{
		Title:   "CSE-A Timetable",
		Headers: []string{"Day", "Start Time", "Subject"},
		Widths:  []float64{1, 1, 3},
	}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, []string{"Monday", fmt.Sprintf("%02d:00", 8+i%10), "Operating Systems, Lab"})
	}
	return data
}

func TestCSVExporterQuotesFields(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(1))
	require.NoError(t, err)
	assert.Equal(t, "Day,Start Time,Subject\nMonday,08:00,\"Operating Systems, Lab\"\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := sampleDataset(1)
	data.Rows = append(data.Rows, []string{"Tuesday"})
	var buf bytes.Buffer
	err := NewCSVExporter().Write(&buf, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRendersMultiplePages(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(80))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.GreaterOrEqual(t, strings.Count(string(out), "/Type /Page\n"), 2)
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []float64{20, 20, 60}, columnWidths(sampleDataset(0), 100))
	assert.Equal(t, []float64{50, 50}, columnWidths(Dataset{Headers: []string{"a", "b"}}, 100))
}
