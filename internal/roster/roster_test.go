package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRowsHeaderSynonyms(t *testing.T) {
	rows := [][]string{
		{"EmployeeCode", "Name", "Department", "Base Salary"},
		{"E1", "A", "Finance", "12,500"},
		{"E2", "B", "", "9800.50"},
	}

	headers, records, err := ParseRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"EmployeeCode", "Name", "Department", "Base Salary"}, headers)
	require.Len(t, records, 2)

	code, ok := records[0].Field(FieldCode)
	require.True(t, ok)
	assert.Equal(t, "E1", code)

	salary, ok := records[0].Field(FieldSalary)
	require.True(t, ok)
	assert.Equal(t, "12,500", salary)

	// The blank department cell resolves to nothing rather than an empty hit.
	_, ok = records[1].Field(FieldDepartment)
	assert.False(t, ok)
}

func TestParseRowsRejectsSheetWithoutCodeColumn(t *testing.T) {
	rows := [][]string{
		{"Nickname", "Shoe Size"},
		{"Bob", "44"},
	}
	_, _, err := ParseRows(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee code")
}

func TestParseRowsSkipsLeadingBlankAndEmptyRows(t *testing.T) {
	rows := [][]string{
		{"", ""},
		{"EmpCode", "Name"},
		{"", ""},
		{"E9", "Zoe"},
	}
	_, records, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	name, _ := records[0].Field(FieldName)
	assert.Equal(t, "Zoe", name)
}

func TestIndexSearch(t *testing.T) {
	ix := NewIndex()
	_, records, err := ParseRows([][]string{
		{"EmployeeCode", "Name"},
		{"E1", "A"},
	})
	require.NoError(t, err)
	_, more, err := ParseRows([][]string{
		{"EmpCode", "Name"},
		{"E2", "B"},
	})
	require.NoError(t, err)

	// Two header spellings for the same logical key end up in one index.
	count := ix.Replace("test", []string{"EmployeeCode", "Name"}, append(records, more...))
	assert.Equal(t, 2, count)
	assert.True(t, ix.Loaded())

	for _, tc := range []struct {
		query string
		name  string
	}{
		{"E1", "A"},
		{"E2", "B"},
		{"  E1  ", "A"},
		{"e1", "A"},
	} {
		rec, ok := ix.Search(tc.query)
		require.True(t, ok, "query %q", tc.query)
		name, _ := rec.Field(FieldName)
		assert.Equal(t, tc.name, name, "query %q", tc.query)
	}

	_, ok := ix.Search("E3")
	assert.False(t, ok, "unknown code reports not-found")
}

func TestIndexReplaceSkipsRowsWithoutCode(t *testing.T) {
	ix := NewIndex()
	records := []Record{
		{"employee code": "E1", "name": "A"},
		{"name": "headless"},
	}
	count := ix.Replace("test", []string{"Employee Code", "Name"}, records)
	assert.Equal(t, 1, count)
}

func TestIndexReset(t *testing.T) {
	ix := NewIndex()
	ix.Replace("test", []string{"Code"}, []Record{{"code": "E1"}})
	require.True(t, ix.Loaded())

	ix.Reset()
	assert.False(t, ix.Loaded())
	_, ok := ix.Search("E1")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Status().Count)
}

func TestRecordEmployeeView(t *testing.T) {
	rec := Record{
		"empcode":  "e7",
		"name":     "Dana",
		"title":    "Analyst",
		"salary":   "1,234.56",
		"pay date": "45000",
	}
	e := rec.Employee()
	assert.Equal(t, "E7", e.Code)
	assert.Equal(t, "Dana", e.Name)
	assert.Equal(t, "Analyst", e.Position)
	require.NotNil(t, e.Salary)
	assert.InDelta(t, 1234.56, *e.Salary, 0.001)
	assert.Equal(t, "2023-03-15", e.PayDate)
}

func TestReadRowsCSVWithBOM(t *testing.T) {
	payload := "\uFEFFEmployeeCode,Name\nE1,A\n"
	rows, err := ReadRows(strings.NewReader(payload), "roster.csv")
	require.NoError(t, err)
	_, records, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	code, ok := records[0].Field(FieldCode)
	require.True(t, ok)
	assert.Equal(t, "E1", code)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "employee code", NormalizeHeader("  Employee   Code "))
	assert.Equal(t, "empcode", NormalizeHeader("\uFEFFEmpCode"))
}
