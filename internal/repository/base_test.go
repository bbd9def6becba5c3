package repository

import (
	"errors"
	"fmt"
	"testing"

	"atelier/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, true},
		{"postgres wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres check", &pgconn.PgError{Code: "23514"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: likes.account_id"), true},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "Account", 1))
	assert.True(t, models.IsCode(mapError(gorm.ErrRecordNotFound, "Account", 1), models.CodeNotFound))
	assert.True(t, models.IsCode(mapError(&pgconn.PgError{Code: "23505"}, "Account", 1), models.CodeConflict))
	assert.True(t, models.IsCode(mapError(errors.New("boom"), "Account", 1), models.CodeInternal))

	forbidden := models.NewForbiddenError("nope")
	assert.Same(t, forbidden, mapError(forbidden, "Account", 1))
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, "%ab\\%c%", containsPattern("AB%c"))
	assert.Equal(t, "x\\_y%", prefixPattern("X_y"))
}
