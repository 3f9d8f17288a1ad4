package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
)

// GormCodeStore answers row counts and code existence probes for the
// identifier allocator. Within a unit of work it runs on the transaction,
// so codes written earlier in the same transaction are visible to probes.
type GormCodeStore struct {
	db *gorm.DB
}

// NewGormCodeStore creates a new GormCodeStore
func NewGormCodeStore(db *gorm.DB) *GormCodeStore {
	return &GormCodeStore{db: db}
}

// Count returns the current number of rows holding codes of a kind
func (s *GormCodeStore) Count(ctx context.Context, kind masterdata.CodeKind) (int64, error) {
	model, err := codeModel(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CodeExists reports whether a code of a kind is already taken
func (s *GormCodeStore) CodeExists(ctx context.Context, kind masterdata.CodeKind, code string) (bool, error) {
	model, err := codeModel(kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// codeModel maps a code kind to the gorm model owning that code column
func codeModel(kind masterdata.CodeKind) (interface{}, error) {
	switch kind {
	case masterdata.CodeKindWarehouse:
		return &masterdata.Warehouse{}, nil
	case masterdata.CodeKindStorageZone:
		return &masterdata.StorageZone{}, nil
	case masterdata.CodeKindTransporter:
		return &masterdata.Transporter{}, nil
	case masterdata.CodeKindContact:
		return &masterdata.TransporterContact{}, nil
	case masterdata.CodeKindDriver:
		return &masterdata.Driver{}, nil
	case masterdata.CodeKindVehicle:
		return &masterdata.Vehicle{}, nil
	case masterdata.CodeKindPermit:
		return &masterdata.VehiclePermit{}, nil
	case masterdata.CodeKindDocument:
		return &masterdata.Document{}, nil
	}
	return nil, shared.ErrInvalidInput
}

// Compile-time interface compliance check
var _ masterdata.CodeStore = (*GormCodeStore)(nil)
