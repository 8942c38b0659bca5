package feeds

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"openlinkedin/internal/core"
)

type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Author      string `xml:"author"`
	Creator     string `xml:"http://purl.org/dc/elements/1.1/ creator"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Author    struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// parseFeed turns a raw feed body into normalised items. RSS 2.0 is tried
// first, then Atom, matching what the sources actually serve regardless of
// their declared kind.
func parseFeed(raw []byte, source core.FeedSource) ([]core.FeedItem, error) {
	var rss rssDoc
	if err := xml.Unmarshal(raw, &rss); err == nil && len(rss.Channel.Items) > 0 {
		items := make([]core.FeedItem, 0, len(rss.Channel.Items))
		for _, entry := range rss.Channel.Items {
			if strings.TrimSpace(entry.Title) == "" {
				continue
			}
			author := entry.Author
			if author == "" {
				author = entry.Creator
			}
			items = append(items, newItem(source, entry.Title, entry.Description,
				strings.TrimSpace(entry.Link), entry.PubDate, author))
		}
		return items, nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(raw, &atom); err == nil && len(atom.Entries) > 0 {
		items := make([]core.FeedItem, 0, len(atom.Entries))
		for _, entry := range atom.Entries {
			if strings.TrimSpace(entry.Title) == "" {
				continue
			}
			summary := entry.Summary
			if summary == "" {
				summary = entry.Content
			}
			published := entry.Published
			if published == "" {
				published = entry.Updated
			}
			items = append(items, newItem(source, entry.Title, summary,
				atomHref(entry.Links), published, entry.Author.Name))
		}
		return items, nil
	}

	return nil, fmt.Errorf("no recognisable RSS or Atom items in %s", source.Name)
}

// atomHref prefers the alternate link, falling back to the first.
func atomHref(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "alternate" || l.Rel == "" {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// hfEntry is one record from the Hugging Face daily papers API. The payload
// shape has shifted over time: paper fields sometimes live on the entry
// itself and sometimes under a nested "paper" object, and authors appear
// either as plain strings or as objects.
type hfEntry struct {
	hfPaperFields
	Paper       *hfPaperFields `json:"paper"`
	PublishedAt string         `json:"publishedAt"`
	Published   string         `json:"published"`
}

type hfPaperFields struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Summary string     `json:"summary"`
	Authors []hfAuthor `json:"authors"`
}

type hfAuthor struct {
	Name string
}

func (a *hfAuthor) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
		User string `json:"user"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		// Unknown author shape; drop the name rather than fail the feed.
		return nil
	}
	if obj.Name != "" {
		a.Name = obj.Name
	} else {
		a.Name = obj.User
	}
	return nil
}

// parseDailyPapers parses the Hugging Face daily papers JSON API. The
// top-level value is either a bare array or an object wrapping one under
// "results" or "data".
func parseDailyPapers(raw []byte, source core.FeedSource, maxItems int) ([]core.FeedItem, error) {
	var entries []hfEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapper struct {
			Results []hfEntry `json:"results"`
			Data    []hfEntry `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("daily papers payload not recognised: %w", err)
		}
		entries = wrapper.Results
		if len(entries) == 0 {
			entries = wrapper.Data
		}
	}

	if maxItems > 0 && len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	var items []core.FeedItem
	for _, entry := range entries {
		fields := entry.hfPaperFields
		if entry.Paper != nil {
			if entry.Paper.Title != "" {
				fields.Title = entry.Paper.Title
			}
			if entry.Paper.Summary != "" {
				fields.Summary = entry.Paper.Summary
			}
			if entry.Paper.ID != "" {
				fields.ID = entry.Paper.ID
			}
			if len(entry.Paper.Authors) > 0 {
				fields.Authors = entry.Paper.Authors
			}
		}
		if strings.TrimSpace(fields.Title) == "" {
			continue
		}

		url := ""
		if fields.ID != "" {
			url = "https://huggingface.co/papers/" + fields.ID
		}
		summary := fields.Summary
		if len(summary) > 500 {
			summary = summary[:500]
		}
		published := entry.PublishedAt
		if published == "" {
			published = entry.Published
		}

		var names []string
		for i, a := range fields.Authors {
			if i == 3 {
				break
			}
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}

		items = append(items, newItem(source, fields.Title, summary, url,
			published, strings.Join(names, ", ")))
	}
	return items, nil
}

// newItem builds a normalised feed item, stripping any HTML out of the title
// and body and stamping the content hash.
func newItem(source core.FeedSource, title, content, url, publishedAt, author string) core.FeedItem {
	title = stripHTML(title)
	content = stripHTML(content)
	return core.FeedItem{
		Hash:           core.ItemHash(title, url),
		Title:          title,
		Content:        content,
		URL:            url,
		SourceName:     source.Name,
		SourceCategory: source.Category,
		Author:         strings.TrimSpace(author),
		PublishedAt:    strings.TrimSpace(publishedAt),
	}
}

// stripHTML renders markup down to its text and collapses whitespace.
// Feed descriptions routinely embed full article HTML.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
