package lead

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/sales-automator/internal/domain"
)

// NewLead is the input shape for creating a lead. Status is optional and
// defaults to pending.
type NewLead struct {
	CompanyName string `json:"company_name" validate:"required"`
	ContactName string `json:"contact_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Status      string `json:"status,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// LineError describes one invalid CSV row. Line is 1-based and counts the
// header, so the first data row is line 2 — matching what the operator
// sees in a spreadsheet.
type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// csvColumns are the required header columns, in any order.
var csvColumns = []string{"company_name", "contact_name", "email"}

// ParseCSV reads a lead import file. Validation is all-or-nothing: if any
// row is malformed the whole file is rejected and every problem is
// reported at once, so the operator fixes the file in one pass.
// Duplicate handling is left to the caller; parsing only checks shape.
func ParseCSV(r io.Reader) ([]NewLead, []LineError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var (
		leads  []NewLead
		errs   []LineError
		line   = 1 // header
		maxCol = max3(idx["company_name"], idx["contact_name"], idx["email"])
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, LineError{Line: line, Message: "malformed row: " + err.Error()})
			continue
		}
		if len(record) <= maxCol {
			errs = append(errs, LineError{Line: line, Message: fmt.Sprintf("expected at least %d columns, got %d", maxCol+1, len(record))})
			continue
		}

		nl := NewLead{
			CompanyName: strings.TrimSpace(record[idx["company_name"]]),
			ContactName: strings.TrimSpace(record[idx["contact_name"]]),
			Email:       strings.TrimSpace(record[idx["email"]]),
		}
		// optional status column; an unknown value falls back to pending
		// rather than poisoning the batch
		if statusIdx, ok := idx["status"]; ok && statusIdx < len(record) {
			if s := strings.TrimSpace(record[statusIdx]); domain.ValidLeadStatus(s) {
				nl.Status = s
			}
		}
		switch {
		case nl.CompanyName == "":
			errs = append(errs, LineError{Line: line, Message: "company_name is empty"})
		case nl.ContactName == "":
			errs = append(errs, LineError{Line: line, Message: "contact_name is empty"})
		case !domain.ValidEmail(nl.Email):
			errs = append(errs, LineError{Line: line, Message: fmt.Sprintf("invalid email %q", nl.Email)})
		default:
			leads = append(leads, nl)
		}
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	if len(leads) == 0 {
		return nil, nil, fmt.Errorf("no data rows")
	}
	return leads, nil, nil
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
