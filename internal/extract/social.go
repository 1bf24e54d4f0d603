package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openresearch/deepresearch/internal/fetch"
)

// SocialThreadExtractor pulls a discussion thread (post + nested comments)
// or a subreddit-style index listing from a Reddit-style JSON API and
// flattens it into plain text.
type SocialThreadExtractor struct {
	HTTPClient *fetch.Client
	// MaxMoreConcurrency bounds concurrent "more children" expansions.
	// Zero means the default of 3.
	MaxMoreConcurrency int
	// MoreChildrenEndpoint overrides the "more children" POST target.
	// Empty means moreChildrenEndpoint.
	MoreChildrenEndpoint string
}

func (e *SocialThreadExtractor) moreChildrenURL() string {
	if e.MoreChildrenEndpoint != "" {
		return e.MoreChildrenEndpoint
	}
	return moreChildrenEndpoint
}

// socialPost carries the thread-mode post metadata and, doubling as an
// index-mode entry, the fields needed for a compact listing summary.
type socialPost struct {
	Name        string  `json:"name"` // t3_<id>; falls back to the URL-derived link_id
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Over18      bool    `json:"over_18"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
}

type socialComment struct {
	Author  string          `json:"author"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Replies json.RawMessage `json:"replies"`
}

type listingChild struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []listingChild `json:"children"`
}

type listing struct {
	Data listingData `json:"data"`
}

// workItem is a unit of the explicit comment-tree traversal queue: a batch
// of sibling comments at a given nesting depth, replacing stack recursion.
type workItem struct {
	children []listingChild
	depth    int
}

// ExtractContent implements Extractor. The response is either a two-element
// [postListing, commentListing] array for a thread, or a single listing for
// an index page; both are detected from the raw array length.
func (e *SocialThreadExtractor) ExtractContent(ctx context.Context, rawURL string) (string, error) {
	apiURL, err := threadAPIURL(rawURL)
	if err != nil {
		return "", err
	}
	body, _, err := e.HTTPClient.GetJSON(ctx, apiURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadServerResponse, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotDecodeRawData, err)
	}

	switch len(raw) {
	case 2:
		return e.extractThread(ctx, apiURL, raw[0], raw[1])
	case 1:
		return extractIndex(raw[0])
	default:
		return "", fmt.Errorf("%w: unexpected listing count %d", ErrCannotParseResponse, len(raw))
	}
}

// extractThread formats the post metadata and self-text, then walks the
// comment tree with an explicit work-queue.
func (e *SocialThreadExtractor) extractThread(ctx context.Context, apiURL string, postRaw, commentsRaw json.RawMessage) (string, error) {
	var postListing listing
	if err := json.Unmarshal(postRaw, &postListing); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseResponse, err)
	}
	if len(postListing.Data.Children) == 0 {
		return "", fmt.Errorf("%w: missing post data", ErrCannotParseResponse)
	}
	var post socialPost
	if err := json.Unmarshal(postListing.Data.Children[0].Data, &post); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseResponse, err)
	}

	linkID := post.Name
	if linkID == "" {
		linkID = linkIDFromAPIURL(apiURL)
	}

	var commentsListing listing
	if err := json.Unmarshal(commentsRaw, &commentsListing); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseResponse, err)
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(post.Title))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("by %s in %s · %s · score %d · %d comments",
		orUnknown(post.Author), orUnknown(post.Subreddit), formatCreated(post.CreatedUTC), post.Score, post.NumComments))
	if post.Over18 {
		sb.WriteString(" · NSFW")
	}
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(post.Selftext))
	sb.WriteString("\n\n")

	queue := []workItem{{children: commentsListing.Data.Children, depth: 0}}
	var moreBatches [][]string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		for _, child := range item.children {
			if child.Kind == "more" {
				var more struct {
					Children []string `json:"children"`
				}
				if err := json.Unmarshal(child.Data, &more); err == nil && len(more.Children) > 0 {
					moreBatches = append(moreBatches, more.Children)
				}
				continue
			}

			var c socialComment
			if err := json.Unmarshal(child.Data, &c); err != nil {
				continue
			}
			if body := strings.TrimSpace(c.Body); body != "" {
				sb.WriteString(formatComment(item.depth, c.Author, body, c.Score))
				sb.WriteString("\n")
			}

			if len(c.Replies) > 0 && string(c.Replies) != `""` {
				var replies listing
				if err := json.Unmarshal(c.Replies, &replies); err == nil && len(replies.Data.Children) > 0 {
					queue = append(queue, workItem{children: replies.Data.Children, depth: item.depth + 1})
				}
			}
		}
	}

	if len(moreBatches) > 0 {
		for _, line := range e.expandMore(ctx, apiURL, moreBatches) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return normalizeWhitespace(sb.String()), nil
}

// extractIndex formats each listing entry (a subreddit/search results page)
// as a compact multi-line summary: title, author, score, comment count, URL.
func extractIndex(raw json.RawMessage) (string, error) {
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseResponse, err)
	}

	var sb strings.Builder
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var post socialPost
		if err := json.Unmarshal(child.Data, &post); err != nil {
			continue
		}
		sb.WriteString(strings.TrimSpace(post.Title))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("by %s · score %d · %d comments", orUnknown(post.Author), post.Score, post.NumComments))
		sb.WriteString("\n")
		sb.WriteString(entryURL(post))
		sb.WriteString("\n\n")
	}
	return normalizeWhitespace(sb.String()), nil
}

func entryURL(post socialPost) string {
	if post.URL != "" {
		return post.URL
	}
	return post.Permalink
}

// formatComment renders a single comment as "<indent×depth> author: body [score]".
func formatComment(depth int, author, body string, score int) string {
	return fmt.Sprintf("%s%s: %s [%d]", strings.Repeat("  ", depth), orUnknown(author), body, score)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func formatCreated(createdUTC float64) string {
	if createdUTC <= 0 {
		return "unknown time"
	}
	return time.Unix(int64(createdUTC), 0).UTC().Format(time.RFC3339)
}

// expandMore fetches "more children" batches with bounded concurrency,
// 429-specific retry, and exponential backoff on other errors.
func (e *SocialThreadExtractor) expandMore(ctx context.Context, apiURL string, batches [][]string) []string {
	conc := e.MaxMoreConcurrency
	if conc <= 0 {
		conc = 3
	}
	linkID := linkIDFromAPIURL(apiURL)

	sem := make(chan struct{}, conc)
	resultsCh := make(chan []string, len(batches))
	var pending int
	for _, ids := range batches {
		ids := ids
		pending++
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			var lines []string
			for len(ids) > 0 {
				chunk := ids
				if len(chunk) > 100 {
					chunk = ids[:100]
					ids = ids[100:]
				} else {
					ids = nil
				}
				lines = append(lines, e.fetchMoreChunk(ctx, linkID, chunk)...)
				if len(ids) > 0 {
					time.Sleep(500 * time.Millisecond)
				}
			}
			resultsCh <- lines
		}()
	}

	out := make([]string, 0)
	for i := 0; i < pending; i++ {
		out = append(out, <-resultsCh...)
	}
	return out
}

func (e *SocialThreadExtractor) fetchMoreChunk(ctx context.Context, linkID string, ids []string) []string {
	const maxRetry = 5
	retried429 := false
	for attempt := 0; attempt < maxRetry; attempt++ {
		body, _, err := e.HTTPClient.PostForm(ctx, e.moreChildrenURL(), moreChildrenForm(linkID, ids))
		if err == nil {
			var wrap struct {
				JSON struct {
					Data struct {
						Things []struct {
							Data socialComment `json:"data"`
						} `json:"things"`
					} `json:"data"`
				} `json:"json"`
			}
			if jerr := json.Unmarshal(body, &wrap); jerr == nil {
				lines := make([]string, 0, len(wrap.JSON.Data.Things))
				for _, t := range wrap.JSON.Data.Things {
					if b := strings.TrimSpace(t.Data.Body); b != "" {
						lines = append(lines, formatComment(0, t.Data.Author, b, t.Data.Score))
					}
				}
				return lines
			}
			return nil
		}
		if strings.Contains(err.Error(), "429") && !retried429 {
			retried429 = true
			time.Sleep(1 * time.Second)
			continue
		}
		time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
	}
	return nil
}

const moreChildrenEndpoint = "https://api.example-social.com/api/morechildren.json"

// moreChildrenForm builds the POST body for the "more children" endpoint:
// api_type, link_id, a CSV of child ids, sort, limit_children, and depth.
func moreChildrenForm(linkID string, ids []string) url.Values {
	v := url.Values{}
	v.Set("api_type", "json")
	v.Set("link_id", linkID)
	v.Set("children", strings.Join(ids, ","))
	v.Set("sort", "top")
	v.Set("limit_children", "false")
	v.Set("depth", "1")
	return v
}

func linkIDFromAPIURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "comments" && i+1 < len(parts) {
			return "t3_" + parts[i+1]
		}
	}
	return ""
}

// threadAPIURL normalizes a thread URL to its canonical .json form with a
// high comment limit.
func threadAPIURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Scheme = "https"
	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, ".json") {
		u.Path += ".json"
	}
	q := u.Query()
	q.Set("limit", "1000")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
