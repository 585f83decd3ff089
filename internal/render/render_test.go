package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/fs"
	"github.com/liquidil/liquidil/internal/value"
)

func render(t *testing.T, e *Engine, src string, assigns map[string]value.Value) string {
	t.Helper()
	out, err := e.RenderString(src, assigns)
	require.NoError(t, err)
	return out
}

// The six end-to-end scenarios from §8.

func TestScenarioUpcaseFilter(t *testing.T) {
	e := New(NewOptions())
	out := render(t, e, `{{ 'hi' | upcase }}`, nil)
	assert.Equal(t, "HI", out)
}

func TestScenarioAssignAndForRange(t *testing.T) {
	e := New(NewOptions())
	out := render(t, e, `{% assign n = 3 %}{% for i in (1..n) %}{{ i }}{% endfor %}`, nil)
	assert.Equal(t, "123", out)
}

func TestScenarioForElseWithLastFlag(t *testing.T) {
	e := New(NewOptions())
	items := &value.List{Items: []value.Value{
		mapItem(t, map[string]value.Value{"name": value.String("A"), "last": value.Bool(false)}),
		mapItem(t, map[string]value.Value{"name": value.String("B"), "last": value.Bool(true)}),
	}}
	src := `{% for x in items %}{{ x.name }}{% if x.last %}!{% endif %}{% else %}none{% endfor %}`
	out := render(t, e, src, map[string]value.Value{"items": items})
	assert.Equal(t, "AB!", out)
}

func TestScenarioForElseEmptyCollection(t *testing.T) {
	e := New(NewOptions())
	items := &value.List{}
	src := `{% for x in items %}{{ x.name }}{% else %}none{% endfor %}`
	out := render(t, e, src, map[string]value.Value{"items": items})
	assert.Equal(t, "none", out)
}

func TestScenarioCaptureTwice(t *testing.T) {
	e := New(NewOptions())
	src := `{% capture g %}{{ n | plus: 1 }}{% endcapture %}{{ g }}{{ g }}`
	out := render(t, e, src, map[string]value.Value{"n": value.Int(4)})
	assert.Equal(t, "55", out)
}

func TestScenarioCycle(t *testing.T) {
	e := New(NewOptions())
	src := `{% cycle 'a','b','c' %}{% cycle 'a','b','c' %}{% cycle 'a','b','c' %}{% cycle 'a','b','c' %}`
	out := render(t, e, src, nil)
	assert.Equal(t, "abca", out)
}

func TestScenarioTablerowTwoColumns(t *testing.T) {
	e := New(NewOptions())
	products := &value.List{Items: []value.Value{value.Int(1), value.Int(2), value.Int(3)}}
	src := `{% tablerow p in products cols:2 %}{{ p }}{% endtablerow %}`
	out := render(t, e, src, map[string]value.Value{"products": products})
	assert.Equal(t,
		"<tr class=\"row1\">\n<td class=\"col1\">1</td><td class=\"col2\">2</td></tr>\n"+
			"<tr class=\"row2\"><td class=\"col1\">3</td></tr>\n", out)
}

// Boundary behaviors from §8.

func TestBoundaryEmptyRangeHitsElse(t *testing.T) {
	e := New(NewOptions())
	out := render(t, e, `{% for x in (1..0) %}{{ x }}{% else %}E{% endfor %}`, nil)
	assert.Equal(t, "E", out)
}

func TestBoundaryForLimitZero(t *testing.T) {
	e := New(NewOptions())
	arr := &value.List{Items: []value.Value{value.Int(1), value.Int(2)}}
	out := render(t, e, `{% for x in arr limit:0 %}{{ x }}{% endfor %}`, map[string]value.Value{"arr": arr})
	assert.Equal(t, "", out)
}

func TestBoundaryDefaultFilter(t *testing.T) {
	e := New(NewOptions())
	assert.Equal(t, "x", render(t, e, `{{ nil | default: 'x' }}`, nil))
	assert.Equal(t, "x", render(t, e, `{{ '' | default: 'x' }}`, nil))
	assert.Equal(t, "0", render(t, e, `{{ 0 | default: 'x' }}`, nil))
}

func TestBoundaryCaseCompareBlankAsymmetry(t *testing.T) {
	e := New(NewOptions())
	assert.Equal(t, "Y", render(t, e, `{% case ' ' %}{% when blank %}Y{% endcase %}`, nil))
	assert.Equal(t, "", render(t, e, `{% case blank %}{% when ' ' %}Y{% endcase %}`, nil))
}

// Partial rendering wired through a fs.MapProvider.

func TestRenderPartialViaProvider(t *testing.T) {
	opts := NewOptions()
	opts.Provider = fs.MapProvider{
		"greeting.liquid": `Hello, {{ greeting }}!`,
	}
	e := New(opts)
	out := render(t, e, `{% render 'greeting.liquid' with name %}`, map[string]value.Value{"name": value.String("Ada")})
	assert.Equal(t, "Hello, Ada!", out)
}

func TestRenderMissingPartialFaultsInline(t *testing.T) {
	e := New(NewOptions())
	out, err := e.RenderString(`{% render 'missing.liquid' %}`, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Liquid error")
}

// Two Engines sharing a CompiledCache and Provider render identically;
// the second one's CompilePartial call is served from the cache entry
// the first one wrote (a decoded *il.Program, not a recompile), which
// this only exercises rather than measures, since timing isn't a
// meaningful assertion here.
func TestRenderPartialReusesPersistentCache(t *testing.T) {
	cache, err := fs.OpenCompiledCache(":memory:")
	require.NoError(t, err)
	defer cache.Close()

	provider := fs.MapProvider{"greeting.liquid": `Hello, {{ greeting }}!`}

	opts1 := NewOptions()
	opts1.Provider = provider
	opts1.Cache = cache
	e1 := New(opts1)
	out1 := render(t, e1, `{% render 'greeting.liquid' with name %}`, map[string]value.Value{"name": value.String("Ada")})
	assert.Equal(t, "Hello, Ada!", out1)

	opts2 := NewOptions()
	opts2.Provider = provider
	opts2.Cache = cache
	e2 := New(opts2)
	out2 := render(t, e2, `{% render 'greeting.liquid' with name %}`, map[string]value.Value{"name": value.String("Grace")})
	assert.Equal(t, "Hello, Grace!", out2)

	// The cache entry itself is keyed by name + content fingerprint.
	_, ok, err := cache.Get("greeting.liquid", fs.Fingerprint(`Hello, {{ greeting }}!`))
	require.NoError(t, err)
	assert.True(t, ok)
}

// The optimizer is observationally sound: disabling every pass must not
// change rendered output (§8 "Invariants").
func TestOptimizerSoundnessAcrossPassSelections(t *testing.T) {
	src := `{% assign n = 3 %}{% for i in (1..n) %}{{ i | plus: 1 }}{% endfor %}`

	none := ""
	optsNone := NewOptions()
	optsNone.PassSpec = &none
	outNone := render(t, New(optsNone), src, nil)

	all := "*"
	optsAll := NewOptions()
	optsAll.PassSpec = &all
	outAll := render(t, New(optsAll), src, nil)

	assert.Equal(t, outNone, outAll)
	assert.Equal(t, "234", outAll)
}

func mapItem(t *testing.T, fields map[string]value.Value) *value.Map {
	t.Helper()
	m := value.NewMap()
	for k, v := range fields {
		m.Set(k, v)
	}
	return m
}
