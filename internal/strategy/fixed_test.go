package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazeemc/Entropy/internal/model"
)

func TestFixedFractionSizer(t *testing.T) {
	s, err := NewFixedFractionSizer(0.02)
	require.NoError(t, err)
	assert.Equal(t, "fixed", s.Name())

	hot, err := model.NewSystemState(5, 3, 90)
	require.NoError(t, err)
	size, err := s.Size(Context{Equity: 50000, State: hot})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, size, "state does not matter once warm")

	cold, err := model.NewSystemState(math.NaN(), 3, 0)
	require.NoError(t, err)
	size, err = s.Size(Context{Equity: 50000, State: cold})
	require.NoError(t, err)
	assert.Equal(t, 0.0, size)

	_, err = s.Size(Context{Index: 4, Equity: math.Inf(1), State: hot})
	assert.True(t, errors.Is(err, model.ErrDegenerateInput))

	_, err = NewFixedFractionSizer(-0.1)
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestNew(t *testing.T) {
	p := DefaultThermoParams()

	s, err := New("", p)
	require.NoError(t, err)
	assert.IsType(t, &ThermoSizer{}, s)

	s, err = New(SizerFixed, p)
	require.NoError(t, err)
	require.IsType(t, &FixedFractionSizer{}, s)
	assert.Equal(t, p.MaxPositionFraction, s.(*FixedFractionSizer).Fraction)

	_, err = New("kelly", p)
	var ce *model.InvalidConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "sizer", ce.Field)

	p.BaseTemperature = 0
	s, err = New(SizerThermo, p)
	assert.Error(t, err)
	assert.Nil(t, s)
}
