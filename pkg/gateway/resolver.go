// Package gateway resolves content-addressed references through an
// ordered, fault-tolerant chain of IPFS gateways.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mintvault/marketsync/pkg/config"
	mkterrors "github.com/mintvault/marketsync/pkg/errors"
	"github.com/mintvault/marketsync/pkg/logging"
)

// Placeholder is the fixed renderable value every unresolved, malformed or
// exhausted image reference degrades to. Never empty, never a raw ipfs://
// reference, renderable without any network fetch.
const Placeholder = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" width="400" height="400"%3E%3Crect fill="%23374151" width="400" height="400"/%3E%3Ctext fill="%239CA3AF" font-family="sans-serif" font-size="24" x="50%25" y="50%25" text-anchor="middle" dominant-baseline="middle"%3ENo Image%3C/text%3E%3C/svg%3E`

// ipfsScheme is the raw content-address scheme gateways rewrite away.
const ipfsScheme = "ipfs://"

// maxMetadataBytes bounds a single metadata document read.
const maxMetadataBytes = 1 << 20

// MetadataDocument is the off-chain JSON fetched from a content-addressed
// URI. Every field is optional; the document is never trusted as complete.
type MetadataDocument struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	ImageUrl    string `json:"imageUrl,omitempty"`
}

// Resolver rewrites content-addressed references to HTTP URLs and fetches
// metadata documents through the priority gateway. The chain is static for
// the life of the process; there is no health-based reordering.
type Resolver struct {
	chain      []string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewResolver creates a resolver over the configured gateway chain.
func NewResolver(cfg config.GatewayConfig, logger *logging.ColoredLogger) *Resolver {
	chain := make([]string, len(cfg.Chain))
	for i, base := range cfg.Chain {
		chain[i] = strings.TrimRight(base, "/")
	}

	return &Resolver{
		chain:   chain,
		timeout: cfg.FetchTimeout,
		// Cancellation rides on the per-request context, not a client
		// timeout, so callers can shorten but never exceed the bound.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Chain returns a copy of the configured gateway chain.
func (r *Resolver) Chain() []string {
	out := make([]string, len(r.chain))
	copy(out, r.chain)
	return out
}

// ExtractID pulls the content identifier (with any subpath) out of a
// reference, regardless of which known gateway host produced it. Query
// strings are dropped. Returns false when the reference is not
// content-addressed.
func ExtractID(uri string) (string, bool) {
	if strings.HasPrefix(uri, ipfsScheme) {
		id := strings.TrimPrefix(uri, ipfsScheme)
		id = strings.SplitN(id, "?", 2)[0]
		if id == "" {
			return "", false
		}
		return id, true
	}
	parts := strings.SplitN(uri, "/ipfs/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	return strings.SplitN(parts[1], "?", 2)[0], true
}

// ResolveURI rewrites a content-addressed reference to the priority
// gateway's HTTP form. References that are not content-addressed are
// returned unchanged.
func (r *Resolver) ResolveURI(uri string) string {
	id, ok := ExtractID(uri)
	if !ok {
		return uri
	}
	return fmt.Sprintf("%s/ipfs/%s", r.chain[0], id)
}

// FetchJSON fetches and decodes a metadata document. The transfer is
// bounded by the configured timeout and aborted on expiry. Non-2xx
// responses and undecodable bodies are classified; a single call never
// retries.
func (r *Resolver) FetchJSON(ctx context.Context, uri string) (*MetadataDocument, error) {
	target := r.ResolveURI(uri)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, mkterrors.NewFetchError(mkterrors.CodeParseError, target, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, mkterrors.NewFetchError(mkterrors.CodeTimeout, target, err)
		}
		return nil, mkterrors.NewFetchError(mkterrors.CodeUnreachable, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mkterrors.NewFetchError(
			mkterrors.CodeHTTPStatus, target,
			fmt.Errorf("gateway returned status %d", resp.StatusCode),
		).WithStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, mkterrors.NewFetchError(mkterrors.CodeTimeout, target, err)
		}
		return nil, mkterrors.NewFetchError(mkterrors.CodeUnreachable, target, err)
	}

	doc := &MetadataDocument{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, mkterrors.NewFetchError(mkterrors.CodeParseError, target, err)
	}

	r.logger.ComponentDebug(logging.ComponentGateway, "fetched metadata",
		zap.String("url", target), zap.String("name", doc.Name))
	return doc, nil
}

// ImageURL extracts the image reference from a metadata document and
// rewrites it through the priority chain. References naming another known
// gateway host are normalized to the priority gateway for consistent
// display. Anything unresolved degrades to the placeholder, never to an
// empty field.
func (r *Resolver) ImageURL(doc *MetadataDocument) string {
	if doc == nil {
		return Placeholder
	}

	ref := doc.Image
	if ref == "" {
		ref = doc.ImageUrl
	}
	if ref == "" {
		return Placeholder
	}

	if id, ok := ExtractID(ref); ok {
		return fmt.Sprintf("%s/ipfs/%s", r.chain[0], id)
	}

	// A plain HTTP(S) reference outside any gateway is kept as-is.
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Placeholder
	}
	return ref
}

// NextGateway is the rendering layer's lazy per-hop fallback: given an
// image URL that failed to load, it returns the same content on the next
// gateway in the chain, and the placeholder once the chain is exhausted.
func (r *Resolver) NextGateway(current string) string {
	id, ok := ExtractID(current)
	if !ok {
		return Placeholder
	}

	idx := -1
	for i, base := range r.chain {
		if strings.HasPrefix(current, base+"/") {
			idx = i
			break
		}
	}

	// A URL from an unconfigured host re-enters the chain at the top.
	if idx < 0 {
		return fmt.Sprintf("%s/ipfs/%s", r.chain[0], id)
	}
	if idx+1 >= len(r.chain) {
		r.logger.ComponentWarn(logging.ComponentGateway, "gateway chain exhausted",
			zap.String("id", id))
		return Placeholder
	}
	return fmt.Sprintf("%s/ipfs/%s", r.chain[idx+1], id)
}
