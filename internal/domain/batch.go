package domain

import (
	"bytes"
	"encoding/json"
)

// FieldTransactionCategory is the bank feed's own category, e.g. "PURCHASE".
const FieldTransactionCategory = "transaction_category"

// Field names the model appends to every transaction.
const (
	FieldGeneralCategory   = "generalCategory"
	FieldSubCategory       = "subCategory"
	FieldDomainDescription = "domainDescription"
)

// Sentinel values used when the model cannot confidently categorize a transaction.
const (
	FallbackGeneralCategory = "General"
	FallbackSubCategory     = "General → Miscellaneous"
)

// Transaction is one bank transaction. Its schema belongs to the upstream
// bank feed, so values are kept as raw JSON and never re-encoded.
type Transaction map[string]json.RawMessage

// Batch is the top-level object exchanged with clients.
type Batch struct {
	Results []Transaction `json:"results"`
	Status  string        `json:"status"`
}

// String returns the string value of key, or "" when the key is absent,
// null, or not a JSON string.
func (t Transaction) String(key string) string {
	raw, ok := t[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ApplyFallback gives the sentinel pair to every transaction whose
// generalCategory or subCategory is missing or empty. Both fields are set
// together so a model-chosen category never sits next to the fallback
// subcategory. Documents that are not shaped like a batch are returned
// unchanged. The second return value is the number of transactions touched.
func ApplyFallback(doc json.RawMessage) (json.RawMessage, int) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(doc, &outer); err != nil {
		return doc, 0
	}
	rawResults, ok := outer["results"]
	if !ok {
		return doc, 0
	}
	var results []Transaction
	if err := json.Unmarshal(rawResults, &results); err != nil {
		return doc, 0
	}

	filled := 0
	for _, txn := range results {
		if txn == nil {
			continue
		}
		if txn.String(FieldGeneralCategory) != "" && txn.String(FieldSubCategory) != "" {
			continue
		}
		txn[FieldGeneralCategory] = mustString(FallbackGeneralCategory)
		txn[FieldSubCategory] = mustString(FallbackSubCategory)
		filled++
	}
	if filled == 0 {
		return doc, 0
	}

	encoded, err := marshal(results)
	if err != nil {
		return doc, 0
	}
	outer["results"] = encoded

	out, err := marshal(outer)
	if err != nil {
		return doc, 0
	}
	return out, filled
}

// marshal encodes v without HTML escaping so merchant descriptions keep
// characters like & and < as the client sent them.
func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func mustString(s string) json.RawMessage {
	b, _ := marshal(s)
	return b
}
