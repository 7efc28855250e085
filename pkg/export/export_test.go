package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:    "Kenyatta High School",
		Subtitle: "Mid Term 2024 - Form 4 East",
		Headers:  []string{"Pos", "Adm No", "Name", "MAT", "Mean", "Grade"},
		Rows: []map[string]string{
			{"Pos": "1", "Adm No": "1001", "Name": "Amina Wanjiru", "MAT": "82", "Mean": "82.00", "Grade": "A"},
			{"Pos": "2", "Adm No": "1002", "Name": "Brian Otieno", "MAT": "", "Mean": "0.00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Pos,Adm No,Name,MAT,Mean,Grade\n1,1001,Amina Wanjiru,82,82.00,A\n2,1002,Brian Otieno,,0.00,\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Kenyatta High School", rows[0][0])
	assert.Equal(t, []string{"Pos", "Adm No", "Name", "MAT", "Mean", "Grade"}, rows[3])
	assert.Equal(t, "Amina Wanjiru", rows[4][2])

	value, err := f.GetCellValue(sheetName, "D5")
	require.NoError(t, err)
	assert.Equal(t, "82", value)
}

func TestRenderersRequireHeaders(t *testing.T) {
	for format, renderer := range Renderers() {
		_, err := renderer.Render(Dataset{})
		assert.Error(t, err, string(format))
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", f.ContentType())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
