package utils

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	code, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}$`), code)

	other, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestNewPaginationParams(t *testing.T) {
	p := NewPaginationParams(3, 10)
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, p)

	p = NewPaginationParams(0, 1000)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestNewPaginationResponse(t *testing.T) {
	resp := NewPaginationResponse(NewPaginationParams(1, 10), 21)
	assert.Equal(t, 3, resp.TotalPages)

	resp = NewPaginationResponse(NewPaginationParams(1, 10), 0)
	assert.Equal(t, 0, resp.TotalPages)
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(fmt.Errorf("boom")))
}
