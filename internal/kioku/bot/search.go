package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Search request bounds. A request may name its own result count but it is
// always clamped to this range.
const (
	defaultSearchLimit = 5
	minSearchLimit     = 1
	maxSearchLimit     = 10
)

// Page is one web search hit.
type Page struct {
	Title   string
	URL     string
	Summary string
}

// Searcher performs a web search on the bot's behalf. Implementations live
// outside this module; the bot only formats and relays their results.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Page, error)
}

// parseSearchRequest recognizes the two search trigger forms, "search for
// <query>" and "search: <query>[: <limit>]", matched case-insensitively at
// the start of the message. It returns the query, the clamped result
// limit, and whether the message was a search request at all.
func parseSearchRequest(text string) (string, int, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	var rest string
	switch {
	case strings.HasPrefix(lower, "search for "):
		rest = strings.TrimSpace(lower[len("search for "):])
	case strings.HasPrefix(lower, "search:"):
		rest = strings.TrimSpace(lower[len("search:"):])
	default:
		return "", 0, false
	}

	limit := defaultSearchLimit
	query := rest
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(rest[i+1:])); err == nil {
			limit = min(max(n, minSearchLimit), maxSearchLimit)
			query = strings.TrimSpace(rest[:i])
		}
	}
	if query == "" {
		return "", 0, false
	}
	return query, limit, true
}

// formatSearchReply renders search hits as a header plus bare URLs, one per
// block, so chat clients can unfurl their own link previews.
func formatSearchReply(query string, pages []Page) string {
	if len(pages) == 0 {
		return fmt.Sprintf("No results found for: %s", query)
	}
	sections := make([]string, 0, len(pages)+1)
	sections = append(sections, fmt.Sprintf("**Search Results for:** %s", query))
	for _, page := range pages {
		sections = append(sections, page.URL)
	}
	return strings.Join(sections, "\n\n")
}
