package enrich

import (
	"strings"
	"testing"

	"github.com/dvloznov/transaction-enricher/internal/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemInstruction(t *testing.T) {
	sys := SystemInstruction()

	assert.True(t, strings.HasPrefix(sys, "You are “EnhancedTxnBot,”"))
	for _, want := range []string{
		"`generalCategory`",
		"`subCategory`",
		"`domainDescription`",
		"**Preserve every existing field**",
		`leave the outer `+"`\"status\"`"+` untouched`,
		"`\"General\"`",
		"`\"General → Miscellaneous\"`",
	} {
		assert.Contains(t, sys, want)
	}
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt([]byte(`{"results":[{"description":"Saving","amount":-50}],"status":"Succeeded"}`), nil)
	require.NoError(t, err)

	want := "Please enrich these transactions:\n" +
		"{\n" +
		"  \"results\": [\n" +
		"    {\n" +
		"      \"description\": \"Saving\",\n" +
		"      \"amount\": -50\n" +
		"    }\n" +
		"  ],\n" +
		"  \"status\": \"Succeeded\"\n" +
		"}\n"
	assert.Equal(t, want, p.User)
	assert.Equal(t, SystemInstruction(), p.System)
}

func TestBuildPrompt_InvalidJSON(t *testing.T) {
	_, err := BuildPrompt([]byte(`{"results":`), nil)
	require.Error(t, err)
}

func TestBuildPrompt_WithReference(t *testing.T) {
	table := categories.New([]categories.Entry{
		{TrueLayerCategory: "PURCHASE", Subcategory: "Shopping → Groceries"},
		{TrueLayerCategory: "TRANSFER", Subcategory: "Bank Products → Savings"},
	})
	batch := []byte(`{"results":[{"transaction_category":"PURCHASE"},{"transaction_category":"ATM"}],"status":"Succeeded"}`)

	p, err := BuildPrompt(batch, table)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p.User, "Please enrich these transactions:\n{\n"))
	assert.True(t, strings.HasSuffix(p.User, "}\n\n"+
		"Preferred subcategories by transaction_category:\n"+
		"- PURCHASE: Shopping → Groceries\n"), p.User)
	assert.NotContains(t, p.User, "TRANSFER")
}

func TestBuildPrompt_ReferenceWithoutMatches(t *testing.T) {
	table := categories.New([]categories.Entry{{TrueLayerCategory: "PURCHASE", Subcategory: "Shopping → Groceries"}})

	batch := []byte(`{"results":[{"description":"no category"}],"status":"Succeeded"}`)
	withRef, err := BuildPrompt(batch, table)
	require.NoError(t, err)
	plain, err := BuildPrompt(batch, nil)
	require.NoError(t, err)

	assert.Equal(t, plain, withRef)
}
