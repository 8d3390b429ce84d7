package roster

import (
	"strings"
	"sync"
	"time"
)

// Logical field names resolved against spreadsheet headers.
const (
	FieldCode       = "code"
	FieldName       = "name"
	FieldDepartment = "department"
	FieldPosition   = "position"
	FieldSalary     = "salary"
	FieldPayDate    = "pay_date"
)

// fieldAliases maps each logical field to the header spellings accepted for it,
// in match order. Headers are compared after normalization, so "Employee Code",
// "employeecode" and "EMPLOYEE  CODE" all land on the same alias.
var fieldAliases = map[string][]string{
	FieldCode:       {"employee code", "employeecode", "empcode", "emp code", "employee id", "employeeid", "staff no", "staff number", "code", "id"},
	FieldName:       {"name", "employee name", "full name", "staff name"},
	FieldDepartment: {"department", "dept", "division", "team"},
	FieldPosition:   {"position", "title", "job title", "role"},
	FieldSalary:     {"salary", "base salary", "monthly salary", "gross salary", "net salary", "pay"},
	FieldPayDate:    {"pay date", "payment date", "payroll date", "pay period", "date"},
}

// Record is one spreadsheet row, keyed by normalized header.
type Record map[string]string

// Field resolves a logical field against the record's headers, trying each
// accepted alias in order and returning the first non-empty match.
func (r Record) Field(logical string) (string, bool) {
	for _, alias := range fieldAliases[logical] {
		if v, ok := r[alias]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Employee is the outward-facing view of a record, with best-effort coercion
// applied to the salary and pay date.
type Employee struct {
	Code       string            `json:"code"`
	Name       string            `json:"name,omitempty"`
	Department string            `json:"department,omitempty"`
	Position   string            `json:"position,omitempty"`
	Salary     *float64          `json:"salary,omitempty"`
	PayDate    string            `json:"pay_date,omitempty"`
	Fields     map[string]string `json:"fields"`
}

// Employee builds the API view of the record.
func (r Record) Employee() Employee {
	e := Employee{Fields: r}
	if v, ok := r.Field(FieldCode); ok {
		e.Code = NormalizeCode(v)
	}
	e.Name, _ = r.Field(FieldName)
	e.Department, _ = r.Field(FieldDepartment)
	e.Position, _ = r.Field(FieldPosition)
	if v, ok := r.Field(FieldSalary); ok {
		if amount, ok := Amount(v); ok {
			e.Salary = &amount
		}
	}
	if v, ok := r.Field(FieldPayDate); ok {
		if date, ok := Date(v); ok {
			e.PayDate = date
		}
	}
	return e
}

// NormalizeCode canonicalizes a lookup key: surrounding whitespace is dropped
// and the code is upper-cased so "e1" and " E1 " match the same row.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeHeader canonicalizes a column header for alias matching.
func NormalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\uFEFF")
	header = strings.ToLower(strings.TrimSpace(header))
	return strings.Join(strings.Fields(header), " ")
}

// Status describes the state of the index for the status endpoint.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Count    int       `json:"count"`
	Headers  []string  `json:"headers,omitempty"`
}

// Index is the in-memory employee-code index. It is mutated only by Replace and
// Reset; Search only reads.
type Index struct {
	mu       sync.RWMutex
	byCode   map[string]Record
	headers  []string
	source   string
	loadedAt time.Time
	loaded   bool
}

func NewIndex() *Index {
	return &Index{byCode: make(map[string]Record)}
}

// Replace swaps in a freshly parsed roster. Rows without an employee code are
// skipped; duplicate codes keep the last row seen, matching a plain
// build-a-dictionary pass over the sheet. Returns the number of indexed rows.
func (ix *Index) Replace(source string, headers []string, records []Record) int {
	byCode := make(map[string]Record, len(records))
	for _, rec := range records {
		code, ok := rec.Field(FieldCode)
		if !ok {
			continue
		}
		byCode[NormalizeCode(code)] = rec
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byCode = byCode
	ix.headers = headers
	ix.source = source
	ix.loadedAt = time.Now()
	ix.loaded = true
	return len(byCode)
}

// Reset clears the index and the loaded flag so the next Load runs again.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byCode = make(map[string]Record)
	ix.headers = nil
	ix.source = ""
	ix.loadedAt = time.Time{}
	ix.loaded = false
}

// Search looks up an employee by code. The input is normalized first, so
// surrounding whitespace and letter case do not matter.
func (ix *Index) Search(code string) (Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.byCode[NormalizeCode(code)]
	return rec, ok
}

// Loaded reports whether a roster has been indexed.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loaded
}

// Status returns a snapshot of the index state.
func (ix *Index) Status() Status {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Status{
		Loaded:   ix.loaded,
		Source:   ix.source,
		LoadedAt: ix.loadedAt,
		Count:    len(ix.byCode),
		Headers:  ix.headers,
	}
}
