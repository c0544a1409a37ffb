package validator

// Schemas are Go values rather than JSON text so the regular expressions can
// be written as raw strings.

// nonBlank matches any string holding at least one non-whitespace character.
const nonBlank = `\S`

// urlPattern accepts http(s) URLs whose host is a domain name, localhost or a
// dotted quad, with optional port and path.
const urlPattern = `(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`

type obj = map[string]interface{}

var (
	nonBlankString  = obj{"type": "string", "pattern": nonBlank}
	nonNegative     = obj{"type": "number", "minimum": 0}
	nonBlankStrings = obj{"type": "array", "items": nonBlankString}
	urlString       = obj{"type": "string", "pattern": urlPattern}
)

var chatRequestSchema = obj{
	"type":     "object",
	"required": []string{"message"},
	"properties": obj{
		"message": nonBlankString,
		"context": obj{
			"type": "object",
			"properties": obj{
				"original_query": obj{"type": "string"},
				"chat_history": obj{
					"type": "array",
					"items": obj{
						"type":     "object",
						"required": []string{"role", "content"},
						"properties": obj{
							"role":    obj{"type": "string"},
							"content": obj{"type": "string"},
						},
					},
				},
				"current_products": obj{
					"type":  "array",
					"items": obj{"type": "object"},
				},
			},
		},
	},
}

var searchRequestSchema = obj{
	"type":     "object",
	"required": []string{"query"},
	"properties": obj{
		"query": nonBlankString,
		"filters": obj{
			"type": "object",
			"properties": obj{
				"price_range": obj{
					"type": "object",
					"properties": obj{
						"min": nonNegative,
						"max": nonNegative,
					},
				},
				"brands":     nonBlankStrings,
				"categories": nonBlankStrings,
			},
		},
	},
}

var recommendationsRequestSchema = obj{
	"type": "object",
	"properties": obj{
		"user_preferences": obj{
			"type": "object",
			"properties": obj{
				"budget":     nonNegative,
				"categories": nonBlankStrings,
				"brands":     nonBlankStrings,
				"features":   nonBlankStrings,
			},
		},
		"search_history": obj{
			"type":  "array",
			"items": obj{"type": "string"},
		},
	},
}

var productSchema = obj{
	"type":     "object",
	"required": []string{"name", "brand", "price"},
	"properties": obj{
		"name":        nonBlankString,
		"brand":       nonBlankString,
		"price":       nonNegative,
		"currency":    nonBlankString,
		"description": obj{"type": "string"},
		"features":    obj{"type": "array", "items": obj{"type": "string"}},
		"rating":      obj{"type": "number", "minimum": 0, "maximum": 5},
		"image_url":   urlString,
		"product_url": urlString,
	},
}
