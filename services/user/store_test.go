package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/authkit/testutils"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	db := testutils.SetupTestDB(t, &User{})
	return NewStore(db), db
}

func createUser(t *testing.T, store *Store, email string) *User {
	u := &User{
		Email:    email,
		Password: "hashed",
		Enabled:  false,
	}
	require.NoError(t, store.Create(u))
	return u
}

func TestStore_FindByEmail(t *testing.T) {
	store, _ := setupStore(t)
	created := createUser(t, store, "alice@x.com")

	found, err := store.FindByEmail("alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.FindByEmail("nobody@x.com")
	require.Error(t, err)
	assert.Equal(t, ErrNotFound, err)
}

func TestStore_FindByID(t *testing.T) {
	store, _ := setupStore(t)
	created := createUser(t, store, "alice@x.com")

	found, err := store.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", found.Email)

	_, err = store.FindByID(9999)
	require.Error(t, err)
	assert.Equal(t, ErrNotFound, err)
}

func TestStore_ExistsByEmail(t *testing.T) {
	store, _ := setupStore(t)
	createUser(t, store, "alice@x.com")

	exists, err := store.ExistsByEmail("alice@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByEmail("nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Enable(t *testing.T) {
	store, _ := setupStore(t)
	created := createUser(t, store, "alice@x.com")
	require.False(t, created.Enabled)

	require.NoError(t, store.Enable(created.ID))

	found, err := store.FindByID(created.ID)
	require.NoError(t, err)
	assert.True(t, found.Enabled)
}

func TestStore_UpdatePassword(t *testing.T) {
	store, _ := setupStore(t)
	created := createUser(t, store, "alice@x.com")

	require.NoError(t, store.UpdatePassword(created.ID, "newhash"))

	found, err := store.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", found.Password)
}

func TestStore_WithTx(t *testing.T) {
	store, db := setupStore(t)
	created := createUser(t, store, "alice@x.com")

	// a failed transaction leaves the row untouched
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := store.WithTx(tx).UpdatePassword(created.ID, "newhash"); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	found, err := store.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed", found.Password)
}
