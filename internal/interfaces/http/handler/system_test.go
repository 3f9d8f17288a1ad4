package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/infrastructure/persistence"
)

func TestSystemHandlerPing(t *testing.T) {
	h := NewSystemHandler(nil)

	c, w := newHandlerContext(t)
	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	body, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pong", body["message"])

	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestSystemHandlerGetSystemInfo(t *testing.T) {
	t.Run("without a database handle", func(t *testing.T) {
		h := NewSystemHandler(nil)

		c, w := newHandlerContext(t)
		h.GetSystemInfo(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		body, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "LogiMaster Backend API", body["name"])
		assert.NotEmpty(t, body["go_version"])
		assert.NotEmpty(t, body["uptime"])
		assert.NotContains(t, body, "database_pool")
	})

	t.Run("reports connection pool statistics", func(t *testing.T) {
		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{
			Conn:       mockDB,
			DriverName: "postgres",
		}), &gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)

		h := NewSystemHandler(&persistence.Database{DB: gormDB})

		c, w := newHandlerContext(t)
		h.GetSystemInfo(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		body, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		require.Contains(t, body, "database_pool")
	})
}
