package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateCleanSchema(t *testing.T) {
	classes := []*meta.Class{
		{
			Name: "Library",
			References: []meta.Reference{
				{Name: "books", Target: "Book", Containment: true, Lower: 0, Upper: meta.UpperBoundMany},
			},
		},
		{
			Name:       "Book",
			SuperTypes: []string{"Library"},
			Attributes: []meta.Attribute{
				{Name: "title", Type: "string", Lower: 1, Upper: 1},
			},
		},
	}

	assert.Empty(t, Validate(classes))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		classes []*meta.Class
		want    []string
	}{
		{
			name: "duplicate class",
			classes: []*meta.Class{
				{Name: "Book"},
				{Name: "Book"},
			},
			want: []string{ErrDuplicateClass},
		},
		{
			name: "duplicate class NFC-normalized",
			classes: []*meta.Class{
				{Name: "Café"},
				{Name: "Cafe\u0301"}, // decomposed, same class after NFC
			},
			want: []string{ErrDuplicateClass},
		},
		{
			name: "dangling supertype",
			classes: []*meta.Class{
				{Name: "Book", SuperTypes: []string{"Publication"}},
			},
			want: []string{ErrDanglingSuperType},
		},
		{
			name: "self supertype",
			classes: []*meta.Class{
				{Name: "Book", SuperTypes: []string{"Book"}},
			},
			want: []string{ErrSelfSuperType},
		},
		{
			name: "dangling reference target",
			classes: []*meta.Class{
				{Name: "Library", References: []meta.Reference{
					{Name: "books", Target: "Book", Upper: 1},
				}},
			},
			want: []string{ErrDanglingRefTarget},
		},
		{
			name: "negative lower bound",
			classes: []*meta.Class{
				{Name: "Book", Attributes: []meta.Attribute{
					{Name: "title", Type: "string", Lower: -1, Upper: 1},
				}},
			},
			want: []string{ErrInvalidBounds},
		},
		{
			name: "upper below lower",
			classes: []*meta.Class{
				{Name: "Book", Attributes: []meta.Attribute{
					{Name: "title", Type: "string", Lower: 2, Upper: 1},
				}},
			},
			want: []string{ErrInvalidBounds},
		},
		{
			name: "upper below many sentinel",
			classes: []*meta.Class{
				{Name: "Book", Attributes: []meta.Attribute{
					{Name: "title", Type: "string", Lower: 0, Upper: -2},
				}},
			},
			want: []string{ErrInvalidBounds},
		},
		{
			name: "duplicate attribute",
			classes: []*meta.Class{
				{Name: "Book", Attributes: []meta.Attribute{
					{Name: "title", Type: "string", Upper: 1},
					{Name: "title", Type: "text", Upper: 1},
				}},
			},
			want: []string{ErrDuplicateFeature},
		},
		{
			name: "empty attribute type",
			classes: []*meta.Class{
				{Name: "Book", Attributes: []meta.Attribute{
					{Name: "title", Upper: 1},
				}},
			},
			want: []string{ErrEmptyAttributeType},
		},
		{
			name: "empty class name",
			classes: []*meta.Class{
				{Name: ""},
			},
			want: []string{ErrEmptyName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.classes)
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestValidateManySentinelIsLegal(t *testing.T) {
	classes := []*meta.Class{
		{Name: "Book", Attributes: []meta.Attribute{
			{Name: "tags", Type: "string", Lower: 5, Upper: meta.UpperBoundMany},
		}},
	}
	assert.Empty(t, Validate(classes), "-1 means many, never compared against lower")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	classes := []*meta.Class{
		{Name: "Book", SuperTypes: []string{"Missing"}},
		{Name: "Book"},
	}

	errs := Validate(classes)
	require.Len(t, errs, 2)
	assert.Contains(t, codes(errs), ErrDuplicateClass)
	assert.Contains(t, codes(errs), ErrDanglingSuperType)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "class.Book", Message: "duplicate class name", Code: ErrDuplicateClass}
	assert.Equal(t, "[E101] class.Book: duplicate class name", err.Error())
}
