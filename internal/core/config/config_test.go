package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: shop
  http:
    port: 9000
db:
  driver: postgres
  dsn: host=localhost
payment:
  vnpay:
    tmnCode: DEMO
shipping:
  ghn:
    enable: true
    shopId: 42
`

func TestReadAppliesFileAndDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))

	c, err := Read(p)
	require.NoError(t, err)
	assert.Equal(t, "shop", c.App.Name)
	assert.Equal(t, 9000, c.App.HTTP.Port)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "DEMO", c.Payment.VnPay.TmnCode)
	assert.True(t, c.Shipping.GHN.Enable)
	assert.Equal(t, 42, c.Shipping.GHN.ShopID)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "async", c.Audit.Mode)
	assert.Equal(t, 1024, c.Cache.LocalSize)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
