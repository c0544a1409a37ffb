// Package validator holds the request and product-record predicates.
package validator

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// MaxQueryLength is the rune limit applied by SanitizeQuery.
const MaxQueryLength = 500

var (
	chatRequest            = mustCompile("chat request", chatRequestSchema)
	searchRequest          = mustCompile("search request", searchRequestSchema)
	recommendationsRequest = mustCompile("recommendations request", recommendationsRequestSchema)
	product                = mustCompile("product", productSchema)
)

func mustCompile(name string, schema map[string]interface{}) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return s
}

func valid(schema *gojsonschema.Schema, data interface{}) bool {
	res, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return false
	}
	return res.Valid()
}

// ValidateChatRequest reports whether data is a well-formed chat body.
func ValidateChatRequest(data interface{}) bool {
	return valid(chatRequest, data)
}

// ValidateSearchRequest reports whether data is a well-formed product search body.
func ValidateSearchRequest(data interface{}) bool {
	return valid(searchRequest, data)
}

// ValidateRecommendationsRequest reports whether data is a well-formed
// recommendations body. Every field is optional.
func ValidateRecommendationsRequest(data interface{}) bool {
	return valid(recommendationsRequest, data)
}

// ValidateProductData reports whether product is a complete product record.
func ValidateProductData(data interface{}) bool {
	return valid(product, data)
}

// SanitizeQuery removes characters that could break out of a prompt or query
// string, truncates to MaxQueryLength runes and trims whitespace.
func SanitizeQuery(query string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, query)

	if runes := []rune(sanitized); len(runes) > MaxQueryLength {
		sanitized = string(runes[:MaxQueryLength])
	}
	return strings.TrimSpace(sanitized)
}
