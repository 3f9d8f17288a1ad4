package bulkupload

import (
	"context"
	"fmt"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

const sheetDrivers = "Drivers"

// DriverSpec wires drivers into the pipeline
type DriverSpec struct{}

// Kind returns the entity kind
func (DriverSpec) Kind() bulk.EntityKind { return bulk.EntityDrivers }

// Layout returns the workbook contract for drivers
func (DriverSpec) Layout() spreadsheet.Layout {
	return spreadsheet.Layout{
		Kind:      bulk.EntityDrivers,
		RefPrefix: "DRV",
		ParentSheet: spreadsheet.SheetSpec{
			Name: sheetDrivers,
			Columns: []spreadsheet.Column{
				{Key: "name", Title: "Driver Name *", Sample: "Ramesh Patil", Note: "Up to 100 characters"},
				{Key: "license_number", Title: "License Number *", Sample: "MH1220210012345", Note: "Unique across all drivers"},
				{Key: "phone", Title: "Phone *", Sample: "+919876543210", Note: "Unique, 10 to 15 digits"},
				{Key: "date_of_birth", Title: "Date of Birth", Sample: "1988-04-12", Note: "YYYY-MM-DD, must be 18 or older"},
				{Key: "license_issued", Title: "License Issued", Sample: "2021-06-01", Note: "YYYY-MM-DD"},
				{Key: "license_expiry", Title: "License Expiry", Sample: "2031-05-31", Note: "Must be after the issue date"},
				{Key: "address_line", Title: "Address", Sample: "12 Station Road", Note: ""},
				{Key: "city", Title: "City", Sample: "Nashik", Note: ""},
				{Key: "state", Title: "State", Sample: "Maharashtra", Note: ""},
				{Key: "postal_code", Title: "PIN Code", Sample: "422001", Note: "Six digits"},
			},
		},
		DisplayColumn: "name",
		Children: []spreadsheet.ChildSheet{
			documentsChildSheet("Driver", "Ramesh Patil", "DRD"),
		},
	}
}

// ValidateFormat runs the pure per-record checks for drivers
func (s DriverSpec) ValidateFormat(rec *spreadsheet.Record) []bulk.RecordError {
	rules := spreadsheet.RuleSet{Sheet: sheetDrivers, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("name", "Driver Name").Required().MaxLength(100).Build(),
		spreadsheet.Rule("license_number", "License Number").Required().MaxLength(32).Build(),
		spreadsheet.Rule("phone", "Phone").Required().Pattern(phoneRe, "Phone must be 10 to 15 digits").Build(),
		spreadsheet.Rule("date_of_birth", "Date of Birth").Date().Build(),
		spreadsheet.Rule("license_issued", "License Issued").Date().Build(),
		spreadsheet.Rule("license_expiry", "License Expiry").Date().Build(),
		spreadsheet.Rule("postal_code", "PIN Code").Pattern(pinRe, "PIN Code must be six digits").Build(),
	}}
	errs := rules.Validate(rec.Row, rec.Fields)
	errs = append(errs, validateDateOrder(rec, sheetDrivers, "license_issued", "license_expiry",
		"License Expiry must be after License Issued")...)
	errs = append(errs, validateDocumentRows(rec)...)
	return errs
}

// BatchKeys lists the natural keys drivers collide on
func (s DriverSpec) BatchKeys(rec *spreadsheet.Record) []BatchKey {
	return []BatchKey{
		{Field: "license_number", Sheet: sheetDrivers, Value: rec.Fields["license_number"]},
		{Field: "phone", Sheet: sheetDrivers, Value: rec.Fields["phone"]},
	}
}

// PersistedConflicts checks the store for already-taken natural keys
func (s DriverSpec) PersistedConflicts(ctx context.Context, repos masterdata.Repositories, rec *spreadsheet.Record) ([]bulk.RecordError, error) {
	var errs []bulk.RecordError

	if license := rec.Fields["license_number"]; license != "" {
		code, err := repos.Drivers.CodeByLicense(ctx, license)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetDrivers, rec.Row, "license_number", license,
				fmt.Sprintf("license %s is already held by driver %s", license, code)))
		}
	}
	if phone := rec.Fields["phone"]; phone != "" {
		code, err := repos.Drivers.CodeByPhone(ctx, phone)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetDrivers, rec.Row, "phone", phone,
				fmt.Sprintf("phone %s is already held by driver %s", phone, code)))
		}
	}
	return errs, nil
}

// Create persists the driver with its documents
func (s DriverSpec) Create(ctx context.Context, repos masterdata.Repositories, alloc *Allocation, rec *spreadsheet.Record) (string, error) {
	driver, err := masterdata.NewDriver(rec.Fields["name"], rec.Fields["license_number"], rec.Fields["phone"])
	if err != nil {
		return "", err
	}

	code, err := alloc.Next(ctx, masterdata.CodeKindDriver)
	if err != nil {
		return "", err
	}
	if err := driver.SetCode(code); err != nil {
		return "", err
	}

	if dob, err := optionalDate(rec.Fields["date_of_birth"]); err != nil {
		return "", err
	} else if dob != nil {
		if err := driver.SetDateOfBirth(*dob); err != nil {
			return "", err
		}
	}
	issued, expiry, err := parseDateWindow(rec.Fields["license_issued"], rec.Fields["license_expiry"])
	if err != nil {
		return "", err
	}
	if err := driver.SetLicenseWindow(issued, expiry); err != nil {
		return "", err
	}
	if err := driver.SetAddress(rec.Fields["address_line"], rec.Fields["city"], rec.Fields["state"], rec.Fields["postal_code"]); err != nil {
		return "", err
	}

	if err := attachDocuments(ctx, alloc, rec, driver.AddDocument); err != nil {
		return "", err
	}

	if err := repos.Drivers.Create(ctx, driver); err != nil {
		return "", err
	}
	return code, nil
}
