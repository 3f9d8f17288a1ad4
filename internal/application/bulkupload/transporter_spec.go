package bulkupload

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

var panRe = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

const (
	sheetTransporters = "Transporters"
	sheetContacts     = "Contacts"

	collectionContacts = "contacts"
)

// TransporterSpec wires transporters into the pipeline
type TransporterSpec struct{}

// Kind returns the entity kind
func (TransporterSpec) Kind() bulk.EntityKind { return bulk.EntityTransporters }

// Layout returns the workbook contract for transporters
func (TransporterSpec) Layout() spreadsheet.Layout {
	return spreadsheet.Layout{
		Kind:      bulk.EntityTransporters,
		RefPrefix: "TRP",
		ParentSheet: spreadsheet.SheetSpec{
			Name: sheetTransporters,
			Columns: []spreadsheet.Column{
				{Key: "name", Title: "Transporter Name *", Sample: "Sharma Logistics", Note: "Unique name, up to 200 characters"},
				{Key: "tax_id", Title: "GSTIN", Sample: "29ABCDE1234F1Z5", Note: "15-character GSTIN, optional"},
				{Key: "pan", Title: "PAN", Sample: "ABCDE1234F", Note: "10-character PAN, optional"},
				{Key: "on_time_performance", Title: "On-Time %", Sample: "97.5", Note: "0 to 100"},
				{Key: "address_line", Title: "Address", Sample: "4 Transport Nagar", Note: ""},
				{Key: "city", Title: "City", Sample: "Pune", Note: ""},
				{Key: "state", Title: "State", Sample: "Maharashtra", Note: ""},
				{Key: "postal_code", Title: "PIN Code", Sample: "411001", Note: "Six digits"},
			},
		},
		DisplayColumn: "name",
		Children: []spreadsheet.ChildSheet{
			{
				SheetSpec: spreadsheet.SheetSpec{
					Name: sheetContacts,
					Columns: []spreadsheet.Column{
						{Key: "transporter", Title: "Transporter *", Sample: "Sharma Logistics", Note: "Name from the Transporters sheet"},
						{Key: "contact_name", Title: "Contact Name *", Sample: "Priya N", Note: ""},
						{Key: "phone", Title: "Phone", Sample: "+919812345678", Note: "10 to 15 digits"},
						{Key: "email", Title: "Email", Sample: "priya@example.com", Note: ""},
					},
				},
				Collection:   collectionContacts,
				ParentColumn: "transporter",
				RefPrefix:    "TRC",
			},
			documentsChildSheet("Transporter", "Sharma Logistics", "TRD"),
		},
	}
}

// ValidateFormat runs the pure per-record checks for transporters
func (s TransporterSpec) ValidateFormat(rec *spreadsheet.Record) []bulk.RecordError {
	rules := spreadsheet.RuleSet{Sheet: sheetTransporters, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("name", "Transporter Name").Required().MaxLength(200).Build(),
		spreadsheet.Rule("tax_id", "GSTIN").Pattern(gstinRe, "GSTIN is not a valid 15-character tax id").Build(),
		spreadsheet.Rule("pan", "PAN").Pattern(panRe, "PAN is not a valid 10-character account number").Build(),
		spreadsheet.Rule("on_time_performance", "On-Time %").Decimal().Range(decimal.Zero, decimal.NewFromInt(100)).Build(),
		spreadsheet.Rule("postal_code", "PIN Code").Pattern(pinRe, "PIN Code must be six digits").Build(),
	}}
	errs := rules.Validate(rec.Row, rec.Fields)

	contactRules := spreadsheet.RuleSet{Sheet: sheetContacts, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("contact_name", "Contact Name").Required().MaxLength(100).Build(),
		spreadsheet.Rule("phone", "Phone").Pattern(phoneRe, "Phone must be 10 to 15 digits").Build(),
		spreadsheet.Rule("email", "Email").Pattern(emailRe, "Email is not valid").Build(),
	}}
	for _, contact := range rec.Children[collectionContacts] {
		errs = append(errs, contactRules.Validate(contact.Row, contact.Fields)...)
	}

	errs = append(errs, validateDocumentRows(rec)...)
	return errs
}

// BatchKeys lists the natural keys transporters collide on
func (s TransporterSpec) BatchKeys(rec *spreadsheet.Record) []BatchKey {
	return []BatchKey{
		{Field: "name", Sheet: sheetTransporters, Value: rec.Fields["name"]},
		{Field: "tax_id", Sheet: sheetTransporters, Value: rec.Fields["tax_id"]},
	}
}

// PersistedConflicts checks the store for already-taken natural keys
func (s TransporterSpec) PersistedConflicts(ctx context.Context, repos masterdata.Repositories, rec *spreadsheet.Record) ([]bulk.RecordError, error) {
	var errs []bulk.RecordError

	if name := rec.Fields["name"]; name != "" {
		code, err := repos.Transporters.CodeByName(ctx, name)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetTransporters, rec.Row, "name", name,
				fmt.Sprintf("transporter %q already exists as %s", name, code)))
		}
	}
	if taxID := rec.Fields["tax_id"]; taxID != "" {
		code, err := repos.Transporters.CodeByTaxID(ctx, strings.ToUpper(taxID))
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetTransporters, rec.Row, "tax_id", taxID,
				fmt.Sprintf("GSTIN %s is already registered to %s", taxID, code)))
		}
	}
	return errs, nil
}

// Create persists the transporter with its contacts and documents
func (s TransporterSpec) Create(ctx context.Context, repos masterdata.Repositories, alloc *Allocation, rec *spreadsheet.Record) (string, error) {
	transporter, err := masterdata.NewTransporter(rec.Fields["name"], rec.Fields["tax_id"], rec.Fields["pan"])
	if err != nil {
		return "", err
	}

	code, err := alloc.Next(ctx, masterdata.CodeKindTransporter)
	if err != nil {
		return "", err
	}
	if err := transporter.SetCode(code); err != nil {
		return "", err
	}

	if v := rec.Fields["on_time_performance"]; v != "" {
		pct, err := spreadsheet.ParseDecimal(v)
		if err != nil {
			return "", err
		}
		if err := transporter.SetOnTimePerformance(pct); err != nil {
			return "", err
		}
	}
	if err := transporter.SetAddress(rec.Fields["address_line"], rec.Fields["city"], rec.Fields["state"], rec.Fields["postal_code"]); err != nil {
		return "", err
	}

	for _, row := range rec.Children[collectionContacts] {
		contact, err := masterdata.NewTransporterContact(row.Fields["contact_name"], row.Fields["phone"], row.Fields["email"])
		if err != nil {
			return "", err
		}
		contactCode, err := alloc.Next(ctx, masterdata.CodeKindContact)
		if err != nil {
			return "", err
		}
		contact.SetCode(contactCode)
		transporter.AddContact(contact)
	}

	if err := attachDocuments(ctx, alloc, rec, transporter.AddDocument); err != nil {
		return "", err
	}

	if err := repos.Transporters.Create(ctx, transporter); err != nil {
		return "", err
	}
	return code, nil
}
