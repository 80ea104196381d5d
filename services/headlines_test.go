package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHeadline(t *testing.T) {
	tests := []struct {
		in      string
		verdict string
		score   int
	}{
		{"Aliens landed in Paris", HeadlineFake, 20},
		{"  CHOCOLATE CAUSES IMMORTALITY\n", HeadlineFake, 20},
		{"Hindu tourists attacked in Kashmir, 26 fatalities", HeadlineReal, 85},
		{"UN discusses global peace resolution", HeadlineReal, 85},
		{"Aliens landed in Paris yesterday", HeadlineUnknown, 50},
		{"Markets closed higher", HeadlineUnknown, 50},
	}
	for _, tt := range tests {
		got := CheckHeadline(tt.in)
		assert.Equal(t, tt.verdict, got.Verdict, tt.in)
		require.NotNil(t, got.Score, tt.in)
		assert.Equal(t, tt.score, *got.Score, tt.in)
		assert.NotEmpty(t, got.Factors, tt.in)
	}
}

func TestCheckHeadlineEmpty(t *testing.T) {
	got := CheckHeadline("   ")
	assert.Equal(t, "Please enter a news article or URL.", got.Message)
	assert.Nil(t, got.Score)
	assert.NotNil(t, got.Factors)
	assert.Empty(t, got.Factors)
	assert.Equal(t, "#DC2626", got.Color)
}
