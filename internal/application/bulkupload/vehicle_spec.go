package bulkupload

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

var vehicleRegRe = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{4}$`)

const (
	sheetVehicles = "Vehicles"
	sheetPermits  = "Permits"

	collectionPermits = "permits"
)

// VehicleSpec wires vehicles into the pipeline. It caches the vehicle type
// lookup table after the first access so a batch does not reload it per row.
type VehicleSpec struct {
	mu    sync.Mutex
	types map[string]uuid.UUID
}

// Kind returns the entity kind
func (*VehicleSpec) Kind() bulk.EntityKind { return bulk.EntityVehicles }

// Layout returns the workbook contract for vehicles
func (*VehicleSpec) Layout() spreadsheet.Layout {
	return spreadsheet.Layout{
		Kind:      bulk.EntityVehicles,
		RefPrefix: "VEH",
		ParentSheet: spreadsheet.SheetSpec{
			Name: sheetVehicles,
			Columns: []spreadsheet.Column{
				{Key: "registration_number", Title: "Registration Number *", Sample: "MH12AB1234", Note: "State registration, unique"},
				{Key: "vehicle_type", Title: "Vehicle Type", Sample: "32FT-MXL", Note: "Type code or name from the master list"},
				{Key: "capacity_tons", Title: "Capacity (tons)", Sample: "14.5", Note: "Decimal, greater than zero"},
				{Key: "max_speed", Title: "Max Speed (km/h)", Sample: "80", Note: "0 to 120"},
			},
		},
		DisplayColumn: "registration_number",
		Children: []spreadsheet.ChildSheet{
			{
				SheetSpec: spreadsheet.SheetSpec{
					Name: sheetPermits,
					Columns: []spreadsheet.Column{
						{Key: "vehicle", Title: "Vehicle *", Sample: "MH12AB1234", Note: "Registration from the Vehicles sheet"},
						{Key: "permit_no", Title: "Permit Number *", Sample: "NP-2024-001234", Note: ""},
						{Key: "state", Title: "State *", Sample: "Maharashtra", Note: ""},
						{Key: "valid_until", Title: "Valid Until", Sample: "2027-03-31", Note: "YYYY-MM-DD"},
					},
				},
				Collection:   collectionPermits,
				ParentColumn: "vehicle",
				RefPrefix:    "PRM",
			},
			documentsChildSheet("Vehicle", "MH12AB1234", "VHD"),
		},
	}
}

// ValidateFormat runs the pure per-record checks for vehicles
func (s *VehicleSpec) ValidateFormat(rec *spreadsheet.Record) []bulk.RecordError {
	rules := spreadsheet.RuleSet{Sheet: sheetVehicles, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("registration_number", "Registration Number").Required().Custom(func(value string) string {
			if !vehicleRegRe.MatchString(normalizeRegistration(value)) {
				return "Registration Number is not a valid plate, expected e.g. MH12AB1234"
			}
			return ""
		}).Build(),
		spreadsheet.Rule("vehicle_type", "Vehicle Type").MaxLength(200).Build(),
		spreadsheet.Rule("capacity_tons", "Capacity (tons)").Decimal().Range(decimal.Zero, decimal.NewFromInt(200)).Build(),
		spreadsheet.Rule("max_speed", "Max Speed (km/h)").Int().Range(decimal.Zero, decimal.NewFromInt(masterdata.MaxVehicleSpeedKmph)).Build(),
	}}
	errs := rules.Validate(rec.Row, rec.Fields)

	permitRules := spreadsheet.RuleSet{Sheet: sheetPermits, Rules: []spreadsheet.FieldRule{
		spreadsheet.Rule("permit_no", "Permit Number").Required().MaxLength(64).Build(),
		spreadsheet.Rule("state", "State").Required().MaxLength(100).Build(),
		spreadsheet.Rule("valid_until", "Valid Until").Date().Build(),
	}}
	for _, permit := range rec.Children[collectionPermits] {
		errs = append(errs, permitRules.Validate(permit.Row, permit.Fields)...)
	}

	errs = append(errs, validateDocumentRows(rec)...)
	return errs
}

// BatchKeys lists the natural keys vehicles collide on
func (s *VehicleSpec) BatchKeys(rec *spreadsheet.Record) []BatchKey {
	return []BatchKey{
		{Field: "registration_number", Sheet: sheetVehicles, Value: normalizeRegistration(rec.Fields["registration_number"])},
	}
}

// PersistedConflicts checks registration uniqueness and resolves the vehicle
// type reference, flagging unknown types so the record fails validation
// instead of failing mid-creation.
func (s *VehicleSpec) PersistedConflicts(ctx context.Context, repos masterdata.Repositories, rec *spreadsheet.Record) ([]bulk.RecordError, error) {
	var errs []bulk.RecordError

	if reg := normalizeRegistration(rec.Fields["registration_number"]); reg != "" {
		code, err := repos.Vehicles.CodeByRegistration(ctx, reg)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if err == nil {
			errs = append(errs, persistedDuplicate(sheetVehicles, rec.Row, "registration_number", rec.Fields["registration_number"],
				fmt.Sprintf("registration %s is already assigned to vehicle %s", reg, code)))
		}
	}
	if typeRef := rec.Fields["vehicle_type"]; typeRef != "" {
		_, found, err := s.resolveType(ctx, repos, typeRef)
		if err != nil {
			return nil, err
		}
		if !found {
			errs = append(errs, bulk.RecordError{
				Sheet:   sheetVehicles,
				Row:     rec.Row,
				Field:   "vehicle_type",
				Code:    spreadsheet.CodeUnknownLookup,
				Message: fmt.Sprintf("vehicle type %q does not match any known type code or name", typeRef),
				Value:   typeRef,
			})
		}
	}
	return errs, nil
}

// Create persists the vehicle with its permits and documents
func (s *VehicleSpec) Create(ctx context.Context, repos masterdata.Repositories, alloc *Allocation, rec *spreadsheet.Record) (string, error) {
	vehicle, err := masterdata.NewVehicle(rec.Fields["registration_number"])
	if err != nil {
		return "", err
	}

	code, err := alloc.Next(ctx, masterdata.CodeKindVehicle)
	if err != nil {
		return "", err
	}
	if err := vehicle.SetCode(code); err != nil {
		return "", err
	}

	if typeRef := rec.Fields["vehicle_type"]; typeRef != "" {
		typeID, found, err := s.resolveType(ctx, repos, typeRef)
		if err != nil {
			return "", err
		}
		if !found {
			return "", shared.NewDomainError("UNKNOWN_VEHICLE_TYPE", fmt.Sprintf("vehicle type %q not found", typeRef))
		}
		vehicle.SetVehicleType(typeID)
	}
	if v := rec.Fields["capacity_tons"]; v != "" {
		tons, err := spreadsheet.ParseDecimal(v)
		if err != nil {
			return "", err
		}
		if err := vehicle.SetCapacity(tons); err != nil {
			return "", err
		}
	}
	if v := rec.Fields["max_speed"]; v != "" {
		kmph, err := spreadsheet.ParseInt(v)
		if err != nil {
			return "", err
		}
		if err := vehicle.SetMaxSpeed(kmph); err != nil {
			return "", err
		}
	}

	for _, row := range rec.Children[collectionPermits] {
		validUntil, err := optionalDate(row.Fields["valid_until"])
		if err != nil {
			return "", err
		}
		permit, err := masterdata.NewVehiclePermit(row.Fields["permit_no"], row.Fields["state"], validUntil)
		if err != nil {
			return "", err
		}
		permitCode, err := alloc.Next(ctx, masterdata.CodeKindPermit)
		if err != nil {
			return "", err
		}
		permit.SetCode(permitCode)
		vehicle.AddPermit(permit)
	}

	if err := attachDocuments(ctx, alloc, rec, vehicle.AddDocument); err != nil {
		return "", err
	}

	if err := repos.Vehicles.Create(ctx, vehicle); err != nil {
		return "", err
	}
	return code, nil
}

// ResetLookups drops the memoized type table so the next batch sees
// types seeded since the last one
func (s *VehicleSpec) ResetLookups() {
	s.mu.Lock()
	s.types = nil
	s.mu.Unlock()
}

// resolveType matches a type reference against type codes first, then names.
// The table is built lazily and lives until ResetLookups, giving each batch
// one FindAll.
func (s *VehicleSpec) resolveType(ctx context.Context, repos masterdata.Repositories, ref string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.types == nil {
		all, err := repos.VehicleTypes.FindAll(ctx)
		if err != nil {
			return uuid.Nil, false, err
		}
		s.types = make(map[string]uuid.UUID, len(all)*2)
		for _, t := range all {
			s.types[typeKey(t.Code)] = t.ID
		}
		for _, t := range all {
			key := typeKey(t.Name)
			if _, taken := s.types[key]; !taken {
				s.types[key] = t.ID
			}
		}
	}
	id, ok := s.types[typeKey(ref)]
	return id, ok, nil
}

func typeKey(value string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(value)))
}

func normalizeRegistration(value string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
}
