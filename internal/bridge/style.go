package bridge

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/GriffinCanCode/worldbridge/internal/shared/id"
)

// MetaAttr carries the caller-supplied id on an injected style node
const MetaAttr = "data-meta-id"

type styleRecord struct {
	node    *html.Node
	styleID string
	metaID  string
}

// styleRegistry maps both the styleId and the metaId of a record to the
// same entry. Removal always drops both aliases.
type styleRegistry struct {
	mu       sync.Mutex
	entries  map[string]*styleRecord
	doc      *page.Document
	injector capability.StyleInjector
	log      *logging.Logger
}

func newStyleRegistry(doc *page.Document, injector capability.StyleInjector, log *logging.Logger) *styleRegistry {
	return &styleRegistry{
		entries:  make(map[string]*styleRecord),
		doc:      doc,
		injector: injector,
		log:      log,
	}
}

// add upserts by metaID and returns the record's styleId
func (r *styleRegistry) add(ctx context.Context, css, metaID string, replace bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if metaID != "" {
		if rec, ok := r.entries[metaID]; ok {
			if replace {
				r.doc.SetText(rec.node, css)
			}
			return rec.styleID
		}
	}

	styleID := id.NewStyleID().String()
	node := r.insert(ctx, css)
	r.doc.SetAttr(node, "id", styleID)
	if metaID != "" {
		r.doc.SetAttr(node, MetaAttr, metaID)
	}

	rec := &styleRecord{node: node, styleID: styleID, metaID: metaID}
	r.entries[styleID] = rec
	if metaID != "" {
		r.entries[metaID] = rec
	}
	return styleID
}

// insert uses the host injector when present and falls back to writing the
// node into the document head directly
func (r *styleRegistry) insert(ctx context.Context, css string) *html.Node {
	if r.injector != nil {
		node, err := r.injector.AddStyle(ctx, css)
		if err == nil && node != nil {
			return node
		}
		r.log.Warn("style injector failed, inserting directly", zap.Error(err))
	}
	return r.doc.AppendStyle(css, nil)
}

// remove detaches the node reached through key and drops both aliases
func (r *styleRegistry) remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.entries[key]
	if !ok {
		return false
	}
	r.drop(rec)
	return true
}

// clearByPrefix removes every record reachable through a key with prefix
// and returns the number of nodes detached
func (r *styleRegistry) clearByPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make(map[*styleRecord]struct{})
	for key, rec := range r.entries {
		if strings.HasPrefix(key, prefix) {
			matched[rec] = struct{}{}
		}
	}
	for rec := range matched {
		r.drop(rec)
	}
	return len(matched)
}

func (r *styleRegistry) drop(rec *styleRecord) {
	delete(r.entries, rec.styleID)
	if rec.metaID != "" {
		delete(r.entries, rec.metaID)
	}
	r.doc.Detach(rec.node)
}

func (r *styleRegistry) lookup(key string) (*styleRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.entries[key]
	return rec, ok
}
