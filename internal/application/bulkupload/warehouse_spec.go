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

var (
	gstinRe = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z][Z][0-9A-Z]$`)
	pinRe   = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneRe = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const (
	sheetWarehouses   = "Warehouses"
	sheetStorageZones = "StorageZones"
	sheetDocuments    = "Documents"

	collectionZones     = "storage_zones"
	collectionDocuments = "documents"
)

// WarehouseSpec wires warehouses into the pipeline
type WarehouseSpec struct{}

// Kind returns the entity kind
func (WarehouseSpec) Kind() bulk.EntityKind { return bulk.EntityWarehouses }

// Layout returns the workbook contract for warehouses
func (WarehouseSpec) Layout() spreadsheet.Layout {
	return spreadsheet.Layout{
		Kind:      bulk.EntityWarehouses,
		RefPrefix: "WH",
		ParentSheet: spreadsheet.SheetSpec{
			Name: sheetWarehouses,
			Columns: []spreadsheet.Column{
				{Key: "name", Title: "Warehouse Name *", Sample: "Central Depot", Note: "Unique name, up to 200 characters"},
				{Key: "type", Title: "Type *", Sample: "distribution", Note: "plant, distribution or cross_dock"},
				{Key: "tax_id", Title: "GSTIN", Sample: "29ABCDE1234F1Z5", Note: "15-character GSTIN, optional"},
				{Key: "capacity_units", Title: "Capacity (units)", Sample: "5000", Note: "Whole number, optional"},
				{Key: "valid_from", Title: "Valid From", Sample: "2026-01-01", Note: "YYYY-MM-DD"},
				{Key: "valid_to", Title: "Valid To", Sample: "2030-12-31", Note: "YYYY-MM-DD, on or after Valid From"},
				{Key: "address_line", Title: "Address", Sample: "12 Ring Road", Note: ""},
				{Key: "city", Title: "City", Sample: "Bengaluru", Note: ""},
				{Key: "state", Title: "State", Sample: "Karnataka", Note: ""},
				{Key: "postal_code", Title: "PIN Code", Sample: "560001", Note: "Six digits"},
			},
		},
		DisplayColumn: "name",
		Children: []spreadsheet.ChildSheet{
			{
				SheetSpec: spreadsheet.SheetSpec{
					Name: sheetStorageZones,
					Columns: []spreadsheet.Column{
						{Key: "warehouse", Title: "Warehouse *", Sample: "Central Depot", Note: "Name from the Warehouses sheet"},
						{Key: "zone_name", Title: "Zone Name *", Sample: "Cold Storage A", Note: ""},
						{Key: "geofence", Title: "Geofence", Sample: "12.97,77.59;12.98,77.59;12.98,77.60", Note: "lat,lng pairs separated by semicolons; at least 3"},
					},
				},
				Collection:   collectionZones,
				ParentColumn: "warehouse",
				RefPrefix:    "WHZ",
			},
			documentsChildSheet("Warehouse", "Central Depot", "WHD"),
		},
	}
}

// ValidateFormat runs the pure per-record checks for warehouses
func (s WarehouseSpec) ValidateFormat(rec *spreadsheet.Record) []bulk.RecordError {
	rules := spreadsheet.RuleSet{Sheet: sheetWarehouses, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("name", "Warehouse Name").Required().MaxLength(200).Build(),
		spreadsheet.Rule("type", "Type").Required().
			Enum(string(masterdata.WarehouseTypePlant), string(masterdata.WarehouseTypeDistribution), string(masterdata.WarehouseTypeCrossDock)).Build(),
		spreadsheet.Rule("tax_id", "GSTIN").Pattern(gstinRe, "GSTIN is not a valid 15-character tax id").Build(),
		spreadsheet.Rule("capacity_units", "Capacity").Int().Range(decimal.Zero, decimal.NewFromInt(100_000_000)).Build(),
		spreadsheet.Rule("valid_from", "Valid From").Date().Build(),
		spreadsheet.Rule("valid_to", "Valid To").Date().Build(),
		spreadsheet.Rule("postal_code", "PIN Code").Pattern(pinRe, "PIN Code must be six digits").Build(),
	}}

	errs := rules.Validate(rec.Row, rec.Fields)
	errs = append(errs, validateDateOrder(rec, sheetWarehouses, "valid_from", "valid_to", "Valid To precedes Valid From")...)

	zoneRules := spreadsheet.RuleSet{Sheet: sheetStorageZones, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("zone_name", "Zone Name").Required().MaxLength(200).Build(),
	}}
	for _, zone := range rec.Children[collectionZones] {
		errs = append(errs, zoneRules.Validate(zone.Row, zone.Fields)...)
		errs = append(errs, validateGeofence(zone)...)
	}

	errs = append(errs, validateDocumentRows(rec)...)
	return errs
}

// BatchKeys lists the natural keys warehouses collide on
func (s WarehouseSpec) BatchKeys(rec *spreadsheet.Record) []BatchKey {
	return []BatchKey{
		{Field: "name", Sheet: sheetWarehouses, Value: rec.Fields["name"]},
		{Field: "tax_id", Sheet: sheetWarehouses, Value: rec.Fields["tax_id"]},
	}
}

// PersistedConflicts checks the store for already-taken natural keys
func (s WarehouseSpec) PersistedConflicts(ctx context.Context, repos masterdata.Repositories, rec *spreadsheet.Record) ([]bulk.RecordError, error) {
	var errs []bulk.RecordError

	if name := rec.Fields["name"]; name != "" {
		code, err := repos.Warehouses.CodeByName(ctx, name)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetWarehouses, rec.Row, "name", name,
				fmt.Sprintf("warehouse %q already exists as %s", name, code)))
		}
	}
	if taxID := rec.Fields["tax_id"]; taxID != "" {
		code, err := repos.Warehouses.CodeByTaxID(ctx, strings.ToUpper(taxID))
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetWarehouses, rec.Row, "tax_id", taxID,
				fmt.Sprintf("GSTIN %s is already registered to %s", taxID, code)))
		}
	}
	return errs, nil
}

// Create persists the warehouse with its zones and documents
func (s WarehouseSpec) Create(ctx context.Context, repos masterdata.Repositories, alloc *Allocation, rec *spreadsheet.Record) (string, error) {
	warehouse, err := masterdata.NewWarehouse(rec.Fields["name"], masterdata.WarehouseType(rec.Fields["type"]), rec.Fields["tax_id"])
	if err != nil {
		return "", err
	}

	code, err := alloc.Next(ctx, masterdata.CodeKindWarehouse)
	if err != nil {
		return "", err
	}
	if err := warehouse.SetCode(code); err != nil {
		return "", err
	}

	if v := rec.Fields["capacity_units"]; v != "" {
		units, err := spreadsheet.ParseInt(v)
		if err != nil {
			return "", err
		}
		if err := warehouse.SetCapacity(units); err != nil {
			return "", err
		}
	}
	from, to, err := parseDateWindow(rec.Fields["valid_from"], rec.Fields["valid_to"])
	if err != nil {
		return "", err
	}
	if err := warehouse.SetValidity(from, to); err != nil {
		return "", err
	}
	if err := warehouse.SetAddress(rec.Fields["address_line"], rec.Fields["city"], rec.Fields["state"], rec.Fields["postal_code"]); err != nil {
		return "", err
	}

	for _, row := range rec.Children[collectionZones] {
		points, err := parseGeofence(row.Fields["geofence"])
		if err != nil {
			return "", err
		}
		zone, err := masterdata.NewStorageZone(row.Fields["zone_name"], points)
		if err != nil {
			return "", err
		}
		zoneCode, err := alloc.Next(ctx, masterdata.CodeKindStorageZone)
		if err != nil {
			return "", err
		}
		zone.SetCode(zoneCode)
		warehouse.AddStorageZone(zone)
	}

	if err := attachDocuments(ctx, alloc, rec, warehouse.AddDocument); err != nil {
		return "", err
	}

	if err := repos.Warehouses.Create(ctx, warehouse); err != nil {
		return "", err
	}
	return code, nil
}

// parseGeofence decodes "lat,lng;lat,lng;..." into points
func parseGeofence(value string) ([]masterdata.GeoPoint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var points []masterdata.GeoPoint
	for i, pair := range strings.Split(value, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("geofence point %d is not a lat,lng pair", i+1)
		}
		lat, err := spreadsheet.ParseDecimal(parts[0])
		if err != nil {
			return nil, fmt.Errorf("geofence point %d: %w", i+1, err)
		}
		lng, err := spreadsheet.ParseDecimal(parts[1])
		if err != nil {
			return nil, fmt.Errorf("geofence point %d: %w", i+1, err)
		}
		latF, _ := lat.Float64()
		lngF, _ := lng.Float64()
		points = append(points, masterdata.GeoPoint{Latitude: latF, Longitude: lngF})
	}
	return points, nil
}

// validateGeofence checks each polygon point, tagging errors with the zone
// row and point index
func validateGeofence(zone spreadsheet.ChildRow) []bulk.RecordError {
	value := strings.TrimSpace(zone.Fields["geofence"])
	if value == "" {
		return nil
	}
	var errs []bulk.RecordError
	points, err := parseGeofence(value)
	if err != nil {
		return []bulk.RecordError{{
			Sheet: sheetStorageZones, Row: zone.Row, Field: "geofence",
			Code: spreadsheet.CodeInvalidFormat, Message: err.Error(), Value: value,
		}}
	}
	if len(points) < 3 {
		errs = append(errs, bulk.RecordError{
			Sheet: sheetStorageZones, Row: zone.Row, Field: "geofence",
			Code: spreadsheet.CodeInvalidFormat, Message: "a geofence needs at least three points", Value: value,
		})
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			errs = append(errs, bulk.RecordError{
				Sheet: sheetStorageZones, Row: zone.Row, Field: "geofence",
				Code:    spreadsheet.CodeOutOfRange,
				Message: fmt.Sprintf("geofence point %d: %s", i+1, err.Error()),
				Value:   value,
			})
		}
	}
	return errs
}
