package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var errOpened = errors.New("opened")

type plainDriver struct {
	dsn string
}

func (d *plainDriver) Open(dsn string) (driver.Conn, error) {
	d.dsn = dsn
	return nil, errOpened
}

func TestOpenConnector_PlainDriver(t *testing.T) {
	t.Parallel()

	drv := &plainDriver{}
	connector, err := openConnector(drv, "/data/inkwell.db")
	require.NoError(t, err)
	assert.Same(t, drv, connector.Driver())

	_, err = connector.Connect(context.Background())
	assert.ErrorIs(t, err, errOpened)
	assert.Equal(t, "/data/inkwell.db", drv.dsn)
}

func TestOpenConnector_SQLite(t *testing.T) {
	t.Parallel()

	connector, err := openConnector(sqliteshim.Driver(), ":memory:")
	require.NoError(t, err)

	conn, err := newRetryConnector(connector, 0).Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}
