package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/domain/contact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	st, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory}, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, config.DriverMemory, st.Driver)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpen_SQLiteRunsMigrations(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "store.db"),
		AutoMigrate: true,
	}

	st, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Ping(ctx))

	u, err := st.Users.Create(ctx, "a@example.com", "hash", "A")
	require.NoError(t, err)

	_, err = st.Contacts.Create(ctx, contact.CreateContactRequest{Name: "Bob"}, u.ID)
	require.NoError(t, err)

	list, err := st.Contacts.ListByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{StoreDriver: "mongo"}, nil)
	require.Error(t, err)
}
