package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChangeType(t *testing.T) {
	assert.NoError(t, ValidateChangeType(ChangeAdd))
	assert.NoError(t, ValidateChangeType(ChangeRemove))
	assert.NoError(t, ValidateChangeType(ChangeModify))

	err := ValidateChangeType(ChangeType("rename"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid change type")
}

func TestValidateElementKind(t *testing.T) {
	assert.NoError(t, ValidateElementKind(ElementClass))
	assert.NoError(t, ValidateElementKind(ElementAttribute))
	assert.NoError(t, ValidateElementKind(ElementReference))

	err := ValidateElementKind(ElementKind("package"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid element kind")
}

func TestSameName_NFCNormalization(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (U+0065 U+0301)
	composed := "Café"
	decomposed := "Café"

	assert.NotEqual(t, composed, decomposed, "raw strings differ")
	assert.True(t, SameName(composed, decomposed), "NFC forms should match")
}

func TestBounds_Rendering(t *testing.T) {
	assert.Equal(t, "[0..1]", Bounds(0, 1))
	assert.Equal(t, "[1..1]", Bounds(1, 1))
	assert.Equal(t, "[0..*]", Bounds(0, UpperBoundMany))
}

func TestLifecycleState_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from LifecycleState
		to   LifecycleState
		want bool
	}{
		{"ambiguous to pending", StateAmbiguous, StatePending, true},
		{"pending to applied", StatePending, StateApplied, true},
		{"pending to failed", StatePending, StateFailed, true},
		{"pending to ambiguous", StatePending, StateAmbiguous, false},
		{"ambiguous to applied", StateAmbiguous, StateApplied, false},
		{"ambiguous to failed", StateAmbiguous, StateFailed, false},
		{"applied is terminal", StateApplied, StatePending, false},
		{"failed is terminal", StateFailed, StatePending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestLifecycleState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateAmbiguous.Terminal())
	assert.True(t, StateApplied.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestIntentKind(t *testing.T) {
	assert.Equal(t, "none", IntentKind(nil))
	assert.Equal(t, "add-class", IntentKind(&AddClass{Name: "Book"}))
	assert.Equal(t, "modify-reference", IntentKind(&ModifyReference{Class: "Library", Name: "books"}))
}

func TestOperation_Describe(t *testing.T) {
	op := &Operation{Change: ChangeAdd, Element: ElementClass}
	assert.Equal(t, "add class", op.Describe())
}
