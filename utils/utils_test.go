package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Go Basics", want: "go-basics"},
		{name: "accents", in: "Débuts en Go", want: "debuts-en-go"},
		{name: "trim", in: "  First Steps!  ", want: "first-steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}

	assert.Len(t, Slugify("   "), 8)
	assert.Equal(t, Slugify("!!!"), Slugify("!!!"))
	assert.Len(t, Slugify("!!!"), 8)
	assert.NotEqual(t, Slugify("!!!"), Slugify("???"))
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name  string  `json:"name" validate:"notblank,max=10"`
		Note  *string `json:"note" validate:"omitempty,notblank"`
		Score int     `json:"score" validate:"min=0"`
	}

	blank := "  "
	assert.Nil(t, ValidateStruct(input{Name: "ok"}))

	errs := ValidateStruct(input{Name: " ", Note: &blank, Score: -1})
	if assert.Len(t, errs, 3) {
		assert.Equal(t, "name", errs[0].Field)
		assert.Equal(t, "name must not be blank", errs[0].Error)
		assert.Equal(t, "note", errs[1].Field)
		assert.Equal(t, "score", errs[2].Field)
	}
}
