package reddit

import (
	"context"
	"strings"
	"time"

	"threadpulse/internal/page"

	"go.uber.org/zap"
)

// DefaultMaxCandidates bounds the candidate pool per community.
const DefaultMaxCandidates = 5

// Dedup is the duplicate filter the collector consults, backed by the
// action ledger.
type Dedup interface {
	WasActedOn(subjectText, community string) (bool, error)
}

// Collector scans a community page's rendered thread list and builds a
// bounded pool of threads not yet engaged. Only the first screen is
// scanned; there is no pagination or scroll-loading.
type Collector struct {
	Dedup Dedup
	Max   int
	Log   *zap.Logger
}

// Collect enumerates rendered threads in document order, skipping
// entries whose title or link cannot be extracted and entries the ledger
// marks as already engaged. An empty pool is a valid outcome.
func (c *Collector) Collect(p page.Page, community string) []CandidateThread {
	log := c.log().With(zap.String("community", community))
	max := c.Max
	if max <= 0 {
		max = DefaultMaxCandidates
	}

	articles, err := p.Elements("article")
	if err != nil {
		log.Warn("thread list enumeration failed", zap.Error(err))
		return nil
	}
	log.Debug("scanning thread elements", zap.Int("articles", len(articles)))

	var pool []CandidateThread
	for _, article := range articles {
		post, found := article.Element("shreddit-post")
		if !found {
			continue
		}
		link, found := post.Element("a[slot='title']")
		if !found {
			link, found = post.Element("a")
		}
		if !found || !link.Visible() {
			continue
		}
		href, found := link.Attr("href")
		if !found || !strings.Contains(href, "/comments/") {
			continue
		}
		title := extractTitle(link)
		if title == "" {
			continue
		}

		acted, err := c.Dedup.WasActedOn(title, community)
		if err != nil {
			// A broken duplicate check must not block the run; treat
			// the thread as fresh, same as a cold-start ledger.
			log.Warn("duplicate check failed", zap.Error(err))
			acted = false
		}
		if acted {
			log.Debug("skipping already engaged thread", zap.String("title", truncate(title, 50)))
			continue
		}

		pool = append(pool, CandidateThread{Title: title, Link: href})
		if len(pool) >= max {
			break
		}
	}

	log.Debug("candidate pool collected", zap.Int("size", len(pool)))
	return pool
}

// WaitThreadList waits for a community page to render its thread list.
// Best effort: a page with zero threads simply times out and collection
// proceeds against whatever markup is present.
func WaitThreadList(ctx context.Context, p page.Page, wait time.Duration) bool {
	_, found := page.WaitVisible(ctx, p, threadListStrategies, wait, 0)
	return found
}

func (c *Collector) log() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}

// extractTitle reads the link's own text, falling back to common child
// wrappers when the anchor itself is empty.
func extractTitle(link page.Element) string {
	txt, err := link.Text()
	if err == nil {
		if t := strings.TrimSpace(txt); t != "" {
			return t
		}
	}
	if child, found := link.Element("h3, span, div"); found {
		if txt, err := child.Text(); err == nil {
			return strings.TrimSpace(txt)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
