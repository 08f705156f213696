// AngelaMos | 2026
// migrate_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/art?sslmode=disable", "pgx5://u:p@db:5432/art?sslmode=disable"},
		{"postgresql://u@db/art", "pgx5://u@db/art"},
		{"pgx5://u@db/art", "pgx5://u@db/art"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, migrationURL(tt.in))
	}
}
