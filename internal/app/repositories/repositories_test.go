package repositories

import (
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursepath/internal/app/models"
)

func TestModulesRoundTripPreservesOrder(t *testing.T) {
	modules := []models.Module{
		{ID: "m2", Title: "CSS Styling"},
		{ID: "m1", Title: "HTML Fundamentals", VideoURL: "https://example.com/v"},
	}

	data, err := encodeModules(modules)
	require.NoError(t, err)

	decoded, err := decodeModules(data)
	require.NoError(t, err)
	assert.Equal(t, modules, decoded)
}

func TestEncodeNilModulesAsEmptyArray(t *testing.T) {
	data, err := encodeModules(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	decoded, err := decodeModules(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
	assert.NotNil(t, decoded)
}

func TestDecodeModulesRejectsGarbage(t *testing.T) {
	_, err := decodeModules([]byte("{not json"))
	assert.Error(t, err)
}

func TestStudentIDsQueryUsesPlaceholders(t *testing.T) {
	sql, args, err := psql.Select("course_id", "student_id").
		From("enrollments").
		Where(squirrel.Eq{"course_id": []string{"a", "b"}}).
		ToSql()
	require.NoError(t, err)

	assert.True(t, strings.Contains(sql, "course_id IN ($1,$2)"), sql)
	assert.Equal(t, []interface{}{"a", "b"}, args)
}
