// Package response coerces whatever the decision step produced into the
// envelope returned to the caller.
package response

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ernaz100/redmerce/internal/model"
)

// Normalizer fills in the reserved envelope keys.
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer stamping envelopes with the wall clock.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock returns a Normalizer using now for the default timestamp.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize converts raw into an envelope. Text that is not a JSON object
// becomes a conversational reply.
func (n *Normalizer) Normalize(raw interface{}) model.Envelope {
	draft := n.draft(raw)

	out := make(model.Envelope, len(draft)+len(model.ReservedKeys))
	for k, v := range draft {
		out[k] = v
	}

	out[model.KeyStatus] = enum(draft[model.KeyStatus], model.StatusSuccess, model.StatusSuccess, model.StatusError)
	out[model.KeyType] = enum(draft[model.KeyType], model.TypeConversational, model.TypeConversational, model.TypeProductSearch)

	if s, ok := draft[model.KeyResponse].(string); ok {
		out[model.KeyResponse] = s
	} else {
		out[model.KeyResponse] = ""
	}

	if products, ok := productList(draft[model.KeyProducts]); ok {
		out[model.KeyProducts] = products
	} else {
		out[model.KeyProducts] = []interface{}{}
	}

	if ts, ok := draft[model.KeyTimestamp].(string); ok && ts != "" {
		out[model.KeyTimestamp] = ts
	} else {
		out[model.KeyTimestamp] = model.Timestamp(n.now())
	}
	return out
}

func (n *Normalizer) draft(raw interface{}) map[string]interface{} {
	switch v := raw.(type) {
	case model.Envelope:
		return v
	case map[string]interface{}:
		return v
	case string:
		return textDraft(v)
	case []byte:
		return textDraft(string(v))
	case nil:
		return map[string]interface{}{}
	default:
		// Structs and other encodable values round-trip through JSON.
		b, err := json.Marshal(v)
		if err != nil {
			return map[string]interface{}{}
		}
		return textDraft(string(b))
	}
}

func textDraft(text string) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]interface{}{
		model.KeyResponse: text,
		model.KeyType:     model.TypeConversational,
	}
}

func enum(v interface{}, def string, allowed ...string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return def
}

func productList(v interface{}) (interface{}, bool) {
	switch p := v.(type) {
	case []interface{}:
		return p, p != nil
	case []map[string]interface{}:
		return p, p != nil
	case []model.EnrichedProduct:
		return p, p != nil
	case []model.ProductDetail:
		return p, p != nil
	}
	return nil, false
}
