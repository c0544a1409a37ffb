package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	t.Run("fenced array with prose", func(t *testing.T) {
		raw := "Here are my picks:\n```json\n[" +
			`{"name":"Sony WH-1000XM5","brand":"Sony","description":"ANC flagship","features":["ANC","30h battery"]},` +
			`{"name":"Bose QuietComfort 45","brand":"Bose","description":"Comfort","features":"USB-C"}` +
			"]\n```\nEnjoy!"

		got, err := ParseCandidates(raw)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Sony WH-1000XM5", got[0].Name)
		assert.Equal(t, []string{"ANC", "30h battery"}, got[0].Features)
		assert.Equal(t, []string{"USB-C"}, got[1].Features)
	})

	t.Run("citation markers before fenced array", func(t *testing.T) {
		raw := "Top noise-cancelling picks[1][2]:\n```json\n" +
			`[{"name":"Sony WH-CH720N","brand":"Sony"},{"name":"Bose QuietComfort 45","brand":"Bose"}]` +
			"\n```\nBoth are widely stocked in Germany[3]."

		got, err := ParseCandidates(raw)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Sony WH-CH720N", got[0].Name)
		assert.Equal(t, "Bose", got[1].Brand)
	})

	t.Run("sources tail after bare array", func(t *testing.T) {
		raw := `[{"name":"Sony WH-CH720N","brand":"Sony","features":["ANC"]}]` +
			"\n\nSources: [1] rtings.com [2] test.de"

		got, err := ParseCandidates(raw)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"ANC"}, got[0].Features)
	})

	t.Run("citation markers in prose around bare array", func(t *testing.T) {
		raw := "Based on reviews[1][2], here are the picks:\n" +
			`[{"name":"Anker Soundcore Space Q45","brand":"Anker"}]` +
			"\nPrices vary[3]."

		got, err := ParseCandidates(raw)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Anker Soundcore Space Q45", got[0].Name)
	})

	t.Run("only citation markers", func(t *testing.T) {
		_, err := ParseCandidates("Nothing suitable was found[1][2].")
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("inline tool error", func(t *testing.T) {
		_, err := ParseCandidates(`{"error": "Search failed with status 429"}`)

		var toolErr *ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, "Search failed with status 429", toolErr.Message)
	})

	t.Run("products wrapper object", func(t *testing.T) {
		got, err := ParseCandidates(`{"products": [{"name": "Kindle Paperwhite", "brand": "Amazon"}]}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{}, got[0].Features)
	})

	t.Run("entries without name are skipped", func(t *testing.T) {
		_, err := ParseCandidates(`[{"brand": "Nobody"}, 3, "x"]`)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("plain prose", func(t *testing.T) {
		_, err := ParseCandidates("I could not find anything.")
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("broken array", func(t *testing.T) {
		_, err := ParseCandidates(`[{"name": "x",]`)
		assert.Error(t, err)
	})
}

func TestEnrich(t *testing.T) {
	c := ProductCandidate{Name: "Sony WH-1000XM5", Brand: "Sony", Description: "ANC", Features: []string{"ANC"}}

	t.Run("first detail supplies commercial fields", func(t *testing.T) {
		p := Enrich(c, []ProductDetail{
			{"name": "Sony WH-1000XM5 Schwarz", "price": "299,00 €", "image_url": "https://img/1", "purchase_link": "https://shop/1", "source": "MediaMarkt", "rating": 4.7, "reviews": float64(1200)},
			{"name": "Sony WH-1000XM5 Silber", "price": "309,00 €"},
		})

		assert.Equal(t, "Sony WH-1000XM5", p.Name)
		assert.Equal(t, "Sony", p.Brand)
		assert.Equal(t, "299,00 €", p.Price)
		assert.Equal(t, "https://img/1", p.ImageURL)
		assert.Equal(t, "https://shop/1", p.PurchaseLink)
		assert.Equal(t, "MediaMarkt", p.Source)
		assert.Equal(t, 4.7, p.Rating)
		assert.Empty(t, p.DetailsError)
		require.Len(t, p.Offers, 1)
		assert.Equal(t, "309,00 €", p.Offers[0]["price"])
	})

	t.Run("fallback record surfaces the error", func(t *testing.T) {
		p := Enrich(c, []ProductDetail{{"name": c.Name, "price": PriceNotAvailable, "error": "No shopping results found"}})

		assert.Equal(t, PriceNotAvailable, p.Price)
		assert.Equal(t, "No shopping results found", p.DetailsError)
		assert.Empty(t, p.Offers)
	})

	t.Run("no details", func(t *testing.T) {
		p := Enrich(ProductCandidate{Name: "x", Brand: "y"}, nil)
		assert.Equal(t, []string{}, p.Features)
		assert.Empty(t, p.Price)
	})
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(time.Date(2025, 3, 1, 12, 30, 0, 123456000, time.FixedZone("CET", 3600)))
	assert.Equal(t, "2025-03-01T11:30:00.123456Z", ts)
}
