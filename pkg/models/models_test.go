package models

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestTables(t *testing.T) {
	t.Parallel()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	cases := []struct {
		model interface{}
		name  string
		alias string
	}{
		{File{}, "files", "f"},
		{User{}, "users", "u"},
	}

	for _, tt := range cases {
		table := db.Table(reflect.TypeOf(tt.model))
		assert.Equal(t, tt.name, table.Name)
		assert.Equal(t, tt.alias, table.Alias)

		field, ok := reflect.TypeOf(tt.model).FieldByName("BaseModel")
		require.True(t, ok)
		assert.Empty(t, field.Tag.Get("tstype"), "%s carries only bun tags", tt.name)
	}
}
