package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseFilterWhere(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected bson.M
	}{
		{
			name:     "empty filter",
			raw:      "",
			expected: bson.M{},
		},
		{
			name:     "scalar equality",
			raw:      `{"where":{"branch":"CSE"}}`,
			expected: bson.M{"branch": "CSE"},
		},
		{
			name:     "comparison operators",
			raw:      `{"where":{"cgpa":{"gte":7},"backlogs":{"lt":2}}}`,
			expected: bson.M{"cgpa": bson.M{"$gte": float64(7)}, "backlogs": bson.M{"$lt": float64(2)}},
		},
		{
			name:     "in operator",
			raw:      `{"where":{"branch":{"in":["CSE","ECE"]}}}`,
			expected: bson.M{"branch": bson.M{"$in": []any{"CSE", "ECE"}}},
		},
		{
			name:     "like becomes case-insensitive regex",
			raw:      `{"where":{"company":{"like":"infosys"}}}`,
			expected: bson.M{"company": bson.M{"$regex": "infosys", "$options": "i"}},
		},
		{
			name:     "between expands to range",
			raw:      `{"where":{"cgpa":{"between":[6,9]}}}`,
			expected: bson.M{"cgpa": bson.M{"$gte": float64(6), "$lte": float64(9)}},
		},
		{
			name: "or conditions",
			raw:  `{"where":{"or":[{"status":"applied"},{"status":"shortlisted"}]}}`,
			expected: bson.M{"$or": []bson.M{
				{"status": "applied"},
				{"status": "shortlisted"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := ParseFilter(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filter.WhereQuery())
		})
	}
}

func TestParseFilterPagination(t *testing.T) {
	filter, err := ParseFilter(`{"where":{"branch":"CSE"},"order":"cgpa DESC, name","limit":20,"skip":40}`)
	require.NoError(t, err)

	assert.Equal(t, int64(20), filter.LimitValue())
	assert.Equal(t, int64(40), filter.SkipValue())
	assert.Equal(t, bson.D{{Key: "cgpa", Value: -1}, {Key: "name", Value: 1}}, filter.SortSpec())
}

func TestParseFilterRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"broken JSON", `{"where":`},
		{"where not an object", `{"where":[1,2]}`},
		{"unknown operator", `{"where":{"cgpa":{"almost":7}}}`},
		{"negative limit", `{"limit":-1}`},
		{"bad order direction", `{"order":"cgpa SIDEWAYS"}`},
		{"bad between bounds", `{"where":{"cgpa":{"between":[6]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestFilterBuilder(t *testing.T) {
	filter := NewFilter().
		Eq("branch", "CSE").
		Where(bson.M{"cgpa": bson.M{"$gte": 7.0}}).
		Exclude("password").
		Sort("created", true).
		Limit(10)

	assert.Equal(t, bson.M{"branch": "CSE", "cgpa": bson.M{"$gte": 7.0}}, filter.WhereQuery())
	assert.Equal(t, bson.M{"password": 0}, filter.Projection())
	assert.Equal(t, bson.D{{Key: "created", Value: -1}}, filter.SortSpec())
	assert.Equal(t, int64(10), filter.LimitValue())
}

func TestFilterWhereMergesSameField(t *testing.T) {
	filter := NewFilter().
		Where(bson.M{"cgpa": bson.M{"$gte": 6.0}}).
		Where(bson.M{"cgpa": bson.M{"$lte": 9.0}})

	where := filter.WhereQuery()
	require.Contains(t, where, "$and")
	assert.NotContains(t, where, "cgpa")
	assert.Len(t, where["$and"], 2)
}
