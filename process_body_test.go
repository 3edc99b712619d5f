package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processTestProfile struct {
	Name   string   `normalize:"trim"`
	Email  string   `normalize:"trim,lowercase"`
	Branch string   `normalize:"trim,uppercase"`
	Phone  string   `sanitize:"numeric"`
	About  string   `sanitize:"html" normalize:"trim"`
	Tags   []string `normalize:"dive,trim,lowercase"`
	Nested processTestNested
	Ptr    *processTestNested
}

type processTestNested struct {
	Code string `sanitize:"alphanumeric" normalize:"uppercase"`
}

func TestProcessStruct_Normalize(t *testing.T) {
	profile := &processTestProfile{
		Name:   "  Ada Lovelace  ",
		Email:  " Ada@Example.COM ",
		Branch: " cse ",
		Tags:   []string{"  Go ", " MONGODB "},
		Nested: processTestNested{Code: "ab-12"},
		Ptr:    &processTestNested{Code: "cd-34"},
	}

	require.NoError(t, processStruct(profile, "normalize"))

	assert.Equal(t, "Ada Lovelace", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "CSE", profile.Branch)
	assert.Equal(t, []string{"go", "mongodb"}, profile.Tags)
	assert.Equal(t, "AB-12", profile.Nested.Code, "nested structs are walked")
	assert.Equal(t, "CD-34", profile.Ptr.Code, "nested struct pointers are walked")
}

func TestProcessStruct_Sanitize(t *testing.T) {
	profile := &processTestProfile{
		Phone: "+91 98765-43210",
		About: `hello <script>alert("x")</script> world`,
		Nested: processTestNested{
			Code: "ab-12!",
		},
	}

	require.NoError(t, processStruct(profile, "sanitize"))

	assert.Equal(t, "919876543210", profile.Phone)
	assert.NotContains(t, profile.About, "<script>")
	assert.Contains(t, profile.About, "hello")
	assert.Equal(t, "ab12", profile.Nested.Code)
}

func TestProcessStruct_Errors(t *testing.T) {
	t.Run("nil input is a no-op", func(t *testing.T) {
		assert.NoError(t, processStruct(nil, "normalize"))
	})

	t.Run("unknown operator", func(t *testing.T) {
		err := processStruct(&processTestProfile{}, "encrypt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid operator")
	})

	t.Run("non-pointer input", func(t *testing.T) {
		err := processStruct(processTestProfile{}, "normalize")
		require.Error(t, err)
	})

	t.Run("nil struct pointer field is skipped", func(t *testing.T) {
		profile := &processTestProfile{Name: " x "}
		require.NoError(t, processStruct(profile, "normalize"))
		assert.Nil(t, profile.Ptr)
	})
}
