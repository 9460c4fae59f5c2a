package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalInt(t *testing.T, src string, env Env) int {
	t.Helper()
	f, err := Compile(src)
	require.NoError(t, err, "compile %q", src)
	v, err := f.EvalInt(env)
	require.NoError(t, err, "eval %q", src)
	return v
}

func TestFormulaArithmetic(t *testing.T) {
	env := Env{Scalars: map[string]float64{"x": 3, "y": 5}}

	assert.Equal(t, 8, evalInt(t, "x + y", env))
	assert.Equal(t, 15, evalInt(t, "x * y", env))
	assert.Equal(t, 2, evalInt(t, "y - x", env))
	assert.Equal(t, 4, evalInt(t, "(x + y) / 2", env))
	assert.Equal(t, -3, evalInt(t, "-x", env))
}

func TestFormulaRoundHalfUp(t *testing.T) {
	env := Env{Scalars: map[string]float64{"v": 3}}

	// 3 / 2 = 1.5 rounds up.
	assert.Equal(t, 2, evalInt(t, "v / 2", env))
	// 1.4 stays down.
	assert.Equal(t, 1, evalInt(t, "7 / 5", env))

	assert.Equal(t, 2, RoundHalfUp(1.5))
	assert.Equal(t, 1, RoundHalfUp(1.49))
	assert.Equal(t, 3, RoundHalfUp(2.5))
}

func TestFormulaConditionals(t *testing.T) {
	env := Env{Scalars: map[string]float64{"pinned": 3, "toKing": 1}}

	assert.Equal(t, 4, evalInt(t, "pinned + (toKing ? 1 : 0)", env))

	env.Scalars["toKing"] = 0
	assert.Equal(t, 3, evalInt(t, "pinned + (toKing ? 1 : 0)", env))

	assert.Equal(t, 1, evalInt(t, "pinned > 2 ? 1 : 99", env))
	assert.Equal(t, 99, evalInt(t, "pinned > 5 ? 1 : 99", env))
}

func TestFormulaLists(t *testing.T) {
	env := Env{
		Scalars: map[string]float64{},
		Lists:   map[string][]float64{"vals": {5, 1, 9}},
	}

	assert.Equal(t, 1, evalInt(t, "min(vals)", env))
	assert.Equal(t, 9, evalInt(t, "max(vals)", env))
	assert.Equal(t, 15, evalInt(t, "sum(vals)", env))

	// Variadic scalar form.
	assert.Equal(t, 1, evalInt(t, "max(1, 9 - 9)", env))
	assert.Equal(t, 2, evalInt(t, "max(1, 4 - 2)", env))
}

func TestFormulaErrors(t *testing.T) {
	_, err := Compile("1 +")
	assert.Error(t, err, "truncated expression")

	_, err = Compile("1 ? 2")
	assert.Error(t, err, "ternary missing else")

	// Unknown functions and identifiers surface at evaluation.
	f, err := Compile("foo(1)")
	require.NoError(t, err)
	_, err = f.EvalInt(Env{})
	assert.Error(t, err)

	f, err = Compile("unknownVar + 1")
	require.NoError(t, err)
	_, err = f.EvalInt(Env{Scalars: map[string]float64{}})
	assert.Error(t, err)
}

func TestStandardProfileFormulas(t *testing.T) {
	cfg := Standard()

	for name, rule := range cfg.Regeneration.Tactics {
		_, err := Compile(rule.Formula)
		assert.NoError(t, err, "tactic %s", name)
	}

	// The shipped formulas against the documented variable sets.
	pin := cfg.Regeneration.Tactics[TacticPin].Formula
	env := Env{Scalars: map[string]float64{"pinnedPieceValue": 3, "isPinnedToKing": 0}}
	assert.Equal(t, 3, evalInt(t, pin, env), "pin to queen")
	env.Scalars["isPinnedToKing"] = 1
	assert.Equal(t, 4, evalInt(t, pin, env), "pin to king")

	fork := cfg.Regeneration.Tactics[TacticFork].Formula
	assert.Equal(t, 3, evalInt(t, fork, Env{
		Scalars: map[string]float64{},
		Lists:   map[string][]float64{"forkedPiecesValues": {5, 3}},
	}))

	skewer := cfg.Regeneration.Tactics[TacticSkewer].Formula
	assert.Equal(t, 4, evalInt(t, skewer, Env{
		Scalars: map[string]float64{"skeweredPieceValue": 9, "behindPieceValue": 5},
	}))
}
