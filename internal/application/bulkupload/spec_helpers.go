package bulkupload

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

// Every entity kind carries the same Documents child sheet; only the
// parent column label and reference prefix differ.
func documentsChildSheet(parentTitle, parentSample, refPrefix string) spreadsheet.ChildSheet {
	return spreadsheet.ChildSheet{
		SheetSpec: spreadsheet.SheetSpec{
			Name: sheetDocuments,
			Columns: []spreadsheet.Column{
				{Key: "parent", Title: parentTitle + " *", Sample: parentSample, Note: "Name from the " + parentTitle + " sheet"},
				{Key: "doc_type", Title: "Document Type *", Sample: "insurance", Note: "registration, insurance, tax_certificate, license or other"},
				{Key: "doc_number", Title: "Document Number *", Sample: "INS-2026-00042", Note: ""},
				{Key: "issued_by", Title: "Issued By", Sample: "National Insurance", Note: ""},
				{Key: "valid_until", Title: "Valid Until", Sample: "2027-03-31", Note: "YYYY-MM-DD"},
			},
		},
		Collection:   collectionDocuments,
		ParentColumn: "parent",
		RefPrefix:    refPrefix,
	}
}

var documentRules = spreadsheet.RuleSet{Sheet: sheetDocuments, Rules: []spreadsheet.FieldRule{
	spreadsheet.Rule("doc_type", "Document Type").Required().
		Enum(string(masterdata.DocumentTypeRegistration), string(masterdata.DocumentTypeInsurance),
			string(masterdata.DocumentTypeTaxCert), string(masterdata.DocumentTypeLicense),
			string(masterdata.DocumentTypeOther)).Build(),
	spreadsheet.Rule("doc_number", "Document Number").Required().MaxLength(100).Build(),
	spreadsheet.Rule("valid_until", "Valid Until").Date().Build(),
}}

func validateDocumentRows(rec *spreadsheet.Record) []bulk.RecordError {
	var errs []bulk.RecordError
	for _, doc := range rec.Children[collectionDocuments] {
		errs = append(errs, documentRules.Validate(doc.Row, doc.Fields)...)
	}
	return errs
}

// attachDocuments builds and codes each document row, handing it to the
// aggregate through attach
func attachDocuments(ctx context.Context, alloc *Allocation, rec *spreadsheet.Record, attach func(*masterdata.Document)) error {
	for _, row := range rec.Children[collectionDocuments] {
		// owner fields are filled by attach
		doc, err := masterdata.NewDocument(uuid.Nil, "",
			masterdata.DocumentType(row.Fields["doc_type"]),
			row.Fields["doc_number"],
		)
		if err != nil {
			return err
		}
		if v := row.Fields["issued_by"]; v != "" {
			doc.IssuedBy = v
		}
		if v := row.Fields["valid_until"]; v != "" {
			until, err := spreadsheet.ParseDate(v)
			if err != nil {
				return err
			}
			doc.ValidUntil = &until
		}
		code, err := alloc.Next(ctx, masterdata.CodeKindDocument)
		if err != nil {
			return err
		}
		doc.SetCode(code)
		attach(doc)
	}
	return nil
}

// validateDateOrder flags toField when both dates parse and toField's date
// precedes fromField's
func validateDateOrder(rec *spreadsheet.Record, sheet, fromField, toField, message string) []bulk.RecordError {
	fromVal, toVal := rec.Fields[fromField], rec.Fields[toField]
	if fromVal == "" || toVal == "" {
		return nil
	}
	from, errFrom := spreadsheet.ParseDate(fromVal)
	to, errTo := spreadsheet.ParseDate(toVal)
	if errFrom != nil || errTo != nil {
		// unparseable dates are already flagged by the field rules
		return nil
	}
	if to.Before(from) {
		return []bulk.RecordError{{
			Sheet: sheet, Row: rec.Row, Field: toField,
			Code: spreadsheet.CodeDateOrder, Message: message, Value: toVal,
		}}
	}
	return nil
}

func parseDateWindow(fromVal, toVal string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromVal != "" {
		t, err := spreadsheet.ParseDate(fromVal)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toVal != "" {
		t, err := spreadsheet.ParseDate(toVal)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}

func persistedDuplicate(sheet string, row int, field, value, message string) bulk.RecordError {
	return bulk.RecordError{
		Sheet: sheet, Row: row, Field: field,
		Code: spreadsheet.CodePersistedDuplicate, Message: message, Value: value,
	}
}

func optionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := spreadsheet.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
