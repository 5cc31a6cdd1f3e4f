package enrich

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/transaction-enricher/internal/domain"
)

// systemInstruction is the enrichment policy sent with every request: add
// generalCategory, subCategory and domainDescription to each transaction,
// keep every other field, leave the batch status alone and fall back to the
// General sentinels when unsure.
//
//go:embed prompts/enrichment_system.txt
var systemInstruction string

const userInstructionPrefix = "Please enrich these transactions:\n"

// Prompt is the pair of instructions sent to the provider.
type Prompt struct {
	System string
	User   string
}

// SystemInstruction returns the fixed enrichment policy.
func SystemInstruction() string {
	return systemInstruction
}

// Reference supplies category guidance for the transaction_category values
// found in a batch. *categories.Table implements it.
type Reference interface {
	Hints(categories []string) string
}

// BuildPrompt embeds the batch, indented by two spaces, into the user
// instruction. When ref is non-nil and has guidance for the batch, it is
// appended after the batch.
func BuildPrompt(batch []byte, ref Reference) (Prompt, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, batch, "", "  "); err != nil {
		return Prompt{}, fmt.Errorf("BuildPrompt: indent batch: %w", err)
	}
	buf.WriteString("\n")

	if ref != nil {
		if hints := ref.Hints(transactionCategories(batch)); hints != "" {
			buf.WriteString("\n")
			buf.WriteString(hints)
		}
	}

	return Prompt{
		System: systemInstruction,
		User:   userInstructionPrefix + buf.String(),
	}, nil
}

// transactionCategories lists transaction_category values in batch order.
// Documents that are not batch-shaped yield nothing.
func transactionCategories(batch []byte) []string {
	var b domain.Batch
	if err := json.Unmarshal(batch, &b); err != nil {
		return nil
	}
	var out []string
	for _, txn := range b.Results {
		if c := txn.String(domain.FieldTransactionCategory); c != "" {
			out = append(out, c)
		}
	}
	return out
}
