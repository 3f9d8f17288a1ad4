package spreadsheet

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/logimaster/backend/internal/domain/bulk"
)

// ChildRow is one row of a child-collection sheet, carrying its own
// provenance so errors can point at the exact cell
type ChildRow struct {
	Sheet  string            `json:"sheet"`
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

// Record is one logical record parsed from the workbook: a parent row plus
// every child row that resolved to it. The reference id, not the display
// name, is the key everything downstream joins on.
type Record struct {
	ReferenceID string                `json:"reference_id"`
	DisplayName string                `json:"display_name"`
	Sheet       string                `json:"sheet"`
	Row         int                   `json:"row"`
	Fields      map[string]string     `json:"fields"`
	Children    map[string][]ChildRow `json:"children,omitempty"`

	// ParseErrors carries errors raised during parsing itself, such as an
	// unresolved parent reference on an orphan row
	ParseErrors []bulk.RecordError `json:"-"`
}

// Payload serializes the record for durable storage
func (r *Record) Payload() (json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %s: %w", r.ReferenceID, err)
	}
	return data, nil
}

// RecordFromPayload restores a record from its stored payload
func RecordFromPayload(payload json.RawMessage) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record payload: %w", err)
	}
	return &rec, nil
}

// Parser turns a workbook into records according to one entity layout
type Parser struct {
	layout Layout
}

// NewParser creates a parser for a layout
func NewParser(layout Layout) *Parser {
	return &Parser{layout: layout}
}

// Parse reads the workbook into records. A missing required sheet or an
// unreadable sheet returns a *ParseError and no records. Child rows whose
// parent cannot be resolved become orphan records carrying an unresolved
// reference error; they are never silently dropped.
func (p *Parser) Parse(wb *Workbook) ([]*Record, error) {
	if !wb.HasSheet(p.layout.ParentSheet.Name) {
		return nil, NewMissingSheetError(p.layout.ParentSheet.Name)
	}
	for _, child := range p.layout.Children {
		if child.Required && !wb.HasSheet(child.Name) {
			return nil, NewMissingSheetError(child.Name)
		}
	}

	parentRows, err := wb.DataRows(p.layout.ParentSheet)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(parentRows))
	byRef := make(map[string]*Record, len(parentRows))
	byName := make(map[string]*Record, len(parentRows))

	for _, row := range parentRows {
		rec := &Record{
			ReferenceID: p.layout.ReferenceID(row.Row),
			DisplayName: row.Get(p.layout.DisplayColumn),
			Sheet:       p.layout.ParentSheet.Name,
			Row:         row.Row,
			Fields:      trimmedFields(row),
			Children:    make(map[string][]ChildRow),
		}
		records = append(records, rec)
		byRef[rec.ReferenceID] = rec
		// first holder of a display name wins resolution; later holders
		// are caught by the duplicate detectors
		key := normalizeKey(rec.DisplayName)
		if key != "" {
			if _, taken := byName[key]; !taken {
				byName[key] = rec
			}
		}
	}

	for _, child := range p.layout.Children {
		if !wb.HasSheet(child.Name) {
			continue
		}
		childRows, err := wb.DataRows(child.SheetSpec)
		if err != nil {
			return nil, err
		}
		for _, row := range childRows {
			ref := row.Get(child.ParentColumn)
			parent := p.resolveParent(ref, byRef, byName)
			if parent == nil {
				records = append(records, orphanRecord(child, row, ref))
				continue
			}
			parent.Children[child.Collection] = append(parent.Children[child.Collection], ChildRow{
				Sheet:  child.Name,
				Row:    row.Row,
				Fields: trimmedFields(row),
			})
		}
	}

	return records, nil
}

// resolveParent tries the explicit reference id first, then falls back to
// the display name
func (p *Parser) resolveParent(ref string, byRef, byName map[string]*Record) *Record {
	if ref == "" {
		return nil
	}
	if rec, ok := byRef[strings.ToUpper(ref)]; ok {
		return rec
	}
	return byName[normalizeKey(ref)]
}

func orphanRecord(child ChildSheet, row RowData, ref string) *Record {
	msg := fmt.Sprintf("row references %q which matches no %s entry", ref, child.ParentColumn)
	if ref == "" {
		msg = "row has no parent reference"
	}
	return &Record{
		ReferenceID: child.OrphanReferenceID(row.Row),
		DisplayName: ref,
		Sheet:       child.Name,
		Row:         row.Row,
		Fields:      trimmedFields(row),
		ParseErrors: []bulk.RecordError{{
			Sheet:   child.Name,
			Row:     row.Row,
			Field:   child.ParentColumn,
			Code:    CodeUnresolvedReference,
			Message: msg,
			Value:   ref,
		}},
	}
}

func trimmedFields(row RowData) map[string]string {
	fields := make(map[string]string, len(row.Cells))
	for k, v := range row.Cells {
		fields[k] = strings.TrimSpace(v)
	}
	return fields
}

// normalizeKey canonicalizes a display name for cross-sheet resolution.
// Content and case must match exactly; only whitespace and unicode
// normalization forms are forgiven.
func normalizeKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
