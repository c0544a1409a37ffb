package response

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernaz100/redmerce/internal/model"
)

var fixed = time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewWithClock(func() time.Time { return fixed })
}

func TestNormalize_PlainText(t *testing.T) {
	env := newTestNormalizer().Normalize("Hello! What are you shopping for?")

	assert.Equal(t, model.Envelope{
		"status":    "success",
		"response":  "Hello! What are you shopping for?",
		"products":  []interface{}{},
		"type":      "conversational",
		"timestamp": "2024-05-01T12:30:00.123456Z",
	}, env)
}

func TestNormalize_JSONArrayTextIsWrapped(t *testing.T) {
	env := newTestNormalizer().Normalize(`[1, 2]`)

	assert.Equal(t, `[1, 2]`, env.Response())
	assert.Equal(t, model.TypeConversational, env.Type())
}

func TestNormalize_ObjectText(t *testing.T) {
	raw := `{"status":"success","response":"Here are three options","products":[{"name":"Sony WH-1000XM5","brand":"Sony"}],"type":"product_search","confidence":0.9}`

	env := newTestNormalizer().Normalize(raw)

	assert.Equal(t, model.StatusSuccess, env.Status())
	assert.Equal(t, model.TypeProductSearch, env.Type())
	assert.Equal(t, "Here are three options", env.Response())
	assert.Equal(t, 0.9, env["confidence"])
	require.Len(t, env[model.KeyProducts], 1)
	assert.Equal(t, "2024-05-01T12:30:00.123456Z", env[model.KeyTimestamp])
}

func TestNormalize_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		draft map[string]interface{}
		key   string
		want  interface{}
	}{
		{"missing status", map[string]interface{}{}, model.KeyStatus, "success"},
		{"unknown status", map[string]interface{}{"status": "ok"}, model.KeyStatus, "success"},
		{"error status kept", map[string]interface{}{"status": "error"}, model.KeyStatus, "error"},
		{"numeric response", map[string]interface{}{"response": 7}, model.KeyResponse, ""},
		{"products not a list", map[string]interface{}{"products": "none"}, model.KeyProducts, []interface{}{}},
		{"unknown type", map[string]interface{}{"type": "search"}, model.KeyType, "conversational"},
		{"empty timestamp", map[string]interface{}{"timestamp": ""}, model.KeyTimestamp, "2024-05-01T12:30:00.123456Z"},
		{"timestamp kept", map[string]interface{}{"timestamp": "2020-01-01T00:00:00"}, model.KeyTimestamp, "2020-01-01T00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestNormalizer().Normalize(tt.draft)
			assert.Equal(t, tt.want, env[tt.key])
			for _, k := range model.ReservedKeys {
				assert.Contains(t, env, k)
			}
		})
	}
}

func TestNormalize_ExtraFieldsPassThrough(t *testing.T) {
	extra := map[string]interface{}{"a": 1}
	env := newTestNormalizer().Normalize(map[string]interface{}{
		"response":        "x",
		"error":           "boom",
		"follow_up":       []interface{}{"budget?"},
		"nested_metadata": extra,
	})

	assert.Equal(t, "boom", env[model.KeyError])
	assert.Equal(t, []interface{}{"budget?"}, env["follow_up"])
	assert.Equal(t, extra, env["nested_metadata"])
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer()
	inputs := []interface{}{
		"plain text",
		`{"response":"x","type":"product_search","products":[{"name":"A"}]}`,
		map[string]interface{}{"status": "bogus", "extra": true},
		nil,
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once))
	}
}

func TestNormalize_TypedProducts(t *testing.T) {
	products := []model.EnrichedProduct{{Name: "A", Brand: "B", Features: []string{}, Offers: []model.ProductDetail{}}}
	env := newTestNormalizer().Normalize(map[string]interface{}{
		"products": products,
		"type":     model.TypeProductSearch,
	})

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Len(t, decoded["products"], 1)

	// the serialized form normalizes to the same reserved values
	again := newTestNormalizer().Normalize(string(b))
	assert.Equal(t, env.Type(), again.Type())
	assert.Equal(t, env[model.KeyTimestamp], again[model.KeyTimestamp])
}
