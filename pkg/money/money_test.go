package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 169367.67, Round(169367.671232877, 2))
	assert.Equal(t, 2.5, Round(2.45, 1))
	assert.Equal(t, -2.5, Round(-2.45, 1))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "R$ 1.234,50", BRL(1234.5))
	assert.Equal(t, "-R$ 1.234,50", BRL(-1234.5))
	assert.Equal(t, "R$ 0,00", BRL(-0.001))
	assert.Equal(t, "157.500", Number(157500, 0))
	assert.Equal(t, "6,7%", Pct(6.66, 1))
	assert.Equal(t, "1.234,57", Number(1234.567, 2))
}
