package shops

import (
	"os"
	"path/filepath"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLookupAndOrder(t *testing.T) {
	dir, err := NewDirectory([]models.ShopIdentity{
		{ID: "s1", MerchantID: "M1", Provider: models.ProviderSquare, Name: "Corner Coffee"},
		{ID: "s2", MerchantID: "M2", Provider: models.ProviderClover, Name: "Beanery"},
	})
	require.NoError(t, err)

	shop, ok := dir.Get("s2")
	require.True(t, ok)
	assert.Equal(t, models.ProviderClover, shop.Provider)

	_, ok = dir.Get("nope")
	assert.False(t, ok)

	list := dir.List()
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "s2", list[1].ID)
}

func TestDirectoryRejectsBadShops(t *testing.T) {
	_, err := NewDirectory([]models.ShopIdentity{
		{ID: "s1", MerchantID: "M1", Provider: "toast"},
	})
	assert.Error(t, err)

	_, err = NewDirectory([]models.ShopIdentity{
		{ID: "", MerchantID: "M1", Provider: models.ProviderSquare},
	})
	assert.Error(t, err)

	_, err = NewDirectory([]models.ShopIdentity{
		{ID: "s1", MerchantID: "M1", Provider: models.ProviderSquare},
		{ID: "s1", MerchantID: "M2", Provider: models.ProviderSquare},
	})
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shops.json")
	data := `[{"id":"s1","merchant_id":"M1","provider":"square","name":"Corner Coffee"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	dir, err := LoadFromFile(path)
	require.NoError(t, err)

	shop, ok := dir.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "Corner Coffee", shop.Name)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}
