package masterdata

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVehicle(t *testing.T) {
	t.Run("normalizes registration", func(t *testing.T) {
		v, err := NewVehicle(" ka01 ab 1234 ")
		require.NoError(t, err)
		assert.Equal(t, "KA01AB1234", v.RegistrationNumber)
		assert.Equal(t, ApprovalStatusPending, v.ApprovalStatus)
	})

	tests := []struct {
		name string
		reg  string
	}{
		{"empty", ""},
		{"too short", "KA1"},
		{"no district digits", "KAAB1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVehicle(tt.reg)
			assert.Error(t, err)
		})
	}
}

func TestVehicle_SetMaxSpeed(t *testing.T) {
	v, err := NewVehicle("KA01AB1234")
	require.NoError(t, err)

	require.NoError(t, v.SetMaxSpeed(80))
	assert.Equal(t, 80, v.MaxSpeedKmph)
	assert.Error(t, v.SetMaxSpeed(121))
	assert.Error(t, v.SetMaxSpeed(-1))
}

func TestVehicle_SetCapacity(t *testing.T) {
	v, err := NewVehicle("KA01AB1234")
	require.NoError(t, err)

	require.NoError(t, v.SetCapacity(decimal.NewFromFloat(16.5)))
	assert.Error(t, v.SetCapacity(decimal.NewFromInt(-1)))
}

func TestNewVehiclePermit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p, err := NewVehiclePermit("NP-2026-0042", "Karnataka", nil)
		require.NoError(t, err)
		assert.Equal(t, "NP-2026-0042", p.PermitNo)
	})

	t.Run("empty permit number", func(t *testing.T) {
		_, err := NewVehiclePermit("  ", "Karnataka", nil)
		assert.Error(t, err)
	})

	t.Run("empty state", func(t *testing.T) {
		_, err := NewVehiclePermit("NP-2026-0042", "", nil)
		assert.Error(t, err)
	})
}
