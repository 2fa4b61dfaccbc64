// Package market assembles normalized, display-ready marketplace records
// from on-chain state and off-chain metadata, and publishes them through
// the reactive store.
package market

import (
	"strings"

	"github.com/mintvault/marketsync/pkg/contract"
	"github.com/mintvault/marketsync/pkg/gateway"
)

// Placeholder values a record degrades to when its metadata document is
// unreachable or malformed. Chain-sourced fields never degrade.
const (
	PlaceholderTitle       = "Untitled"
	PlaceholderDescription = "Metadata unavailable"
)

// NormalizedRecord is the unit handed to the rendering layer: chain
// fields merged with resolved metadata. Constructed fresh on every sync
// pass and never mutated in place; the whole collection is replaced as a
// unit in the store.
type NormalizedRecord struct {
	ID          int64  `json:"id"`
	Owner       string `json:"owner"` // lowercase hex
	CostEth     string `json:"costEth"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MetadataURI string `json:"metadataURI"`
	ImageURL    string `json:"imageURL"` // always renderable, never a raw ipfs:// reference
	Timestamp   int64  `json:"timestamp"`

	// Degraded marks a record whose metadata resolution failed and whose
	// title/description/image carry placeholders. Logged, never surfaced.
	Degraded bool `json:"-"`
}

// newChainRecord seeds a normalized record with the authoritative chain
// fields. Metadata-derived fields are filled in by the resolver step.
func newChainRecord(raw contract.RawRecord) NormalizedRecord {
	return NormalizedRecord{
		ID:          raw.Id.Int64(),
		Owner:       strings.ToLower(raw.Owner.Hex()),
		CostEth:     contract.WeiToEth(raw.Cost),
		MetadataURI: raw.MetadataURI,
		Timestamp:   raw.Timestamp.Int64(),
	}
}

// degrade fills the metadata-derived fields with their placeholders.
func (n *NormalizedRecord) degrade() {
	n.Title = PlaceholderTitle
	n.Description = PlaceholderDescription
	n.ImageURL = gateway.Placeholder
	n.Degraded = true
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
