package masterdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWarehouse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		w, err := NewWarehouse("Central Depot", WarehouseTypeDistribution, "29ABCDE1234F1Z5")
		require.NoError(t, err)
		assert.Equal(t, "Central Depot", w.Name)
		assert.Equal(t, WarehouseTypeDistribution, w.Type)
		assert.Equal(t, "29ABCDE1234F1Z5", w.TaxID)
		assert.Equal(t, ApprovalStatusPending, w.ApprovalStatus)
		assert.Empty(t, w.Code)
	})

	t.Run("tax id optional", func(t *testing.T) {
		_, err := NewWarehouse("Plant Store", WarehouseTypePlant, "")
		assert.NoError(t, err)
	})

	tests := []struct {
		name          string
		warehouseName string
		whType        WarehouseType
		taxID         string
	}{
		{"empty name", "", WarehouseTypePlant, ""},
		{"blank name", "   ", WarehouseTypePlant, ""},
		{"bad type", "Depot", WarehouseType("floating"), ""},
		{"bad tax id", "Depot", WarehouseTypePlant, "NOT-A-GSTIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWarehouse(tt.warehouseName, tt.whType, tt.taxID)
			assert.Error(t, err)
		})
	}
}

func TestWarehouse_SetValidity(t *testing.T) {
	w, err := NewWarehouse("Depot", WarehouseTypePlant, "")
	require.NoError(t, err)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, w.SetValidity(&from, &to))
	assert.Error(t, w.SetValidity(&to, &from))
	assert.NoError(t, w.SetValidity(&from, nil))
}

func TestWarehouse_SetAddress(t *testing.T) {
	w, err := NewWarehouse("Depot", WarehouseTypePlant, "")
	require.NoError(t, err)

	require.NoError(t, w.SetAddress("12 Ring Road", "Bengaluru", "Karnataka", "560001"))
	assert.Equal(t, "560001", w.PostalCode)

	assert.Error(t, w.SetAddress("12 Ring Road", "Bengaluru", "Karnataka", "0001"))
}

func TestNewStorageZone(t *testing.T) {
	t.Run("with geofence", func(t *testing.T) {
		zone, err := NewStorageZone("Cold Storage A", []GeoPoint{
			{Latitude: 12.97, Longitude: 77.59},
			{Latitude: 12.98, Longitude: 77.59},
			{Latitude: 12.98, Longitude: 77.60},
		})
		require.NoError(t, err)

		points, err := zone.GeofencePoints()
		require.NoError(t, err)
		assert.Len(t, points, 3)
	})

	t.Run("without geofence", func(t *testing.T) {
		zone, err := NewStorageZone("Open Yard", nil)
		require.NoError(t, err)

		points, err := zone.GeofencePoints()
		require.NoError(t, err)
		assert.Nil(t, points)
	})

	t.Run("degenerate polygon", func(t *testing.T) {
		_, err := NewStorageZone("Zone", []GeoPoint{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}})
		assert.Error(t, err)
	})

	t.Run("coordinate out of range", func(t *testing.T) {
		_, err := NewStorageZone("Zone", []GeoPoint{
			{Latitude: 91, Longitude: 0},
			{Latitude: 1, Longitude: 1},
			{Latitude: 2, Longitude: 2},
		})
		assert.Error(t, err)
	})
}

func TestWarehouse_AddStorageZone(t *testing.T) {
	w, err := NewWarehouse("Depot", WarehouseTypeCrossDock, "")
	require.NoError(t, err)

	zone, err := NewStorageZone("Dock 1", nil)
	require.NoError(t, err)
	w.AddStorageZone(zone)

	require.Len(t, w.StorageZones, 1)
	assert.Equal(t, w.ID, w.StorageZones[0].WarehouseID)
}
