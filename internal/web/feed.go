package web

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/forum-notes/internal/forum"
)

const feedItems = 20

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Description string  `xml:"description"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// handleCommentFeed serves the recent-comments RSS feed. It reads through
// the same listing path as the API, so notes never appear in it.
func (s *Server) handleCommentFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	comments, err := s.comments.Recent(r.Context(), feedItems)
	if err != nil {
		slog.ErrorContext(r.Context(), "loading comment feed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	site := s.siteName
	if site == "" {
		site = "Forum"
	}
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       fmt.Sprintf("Comments for %s", site),
			Link:        s.baseURL + "/",
			Description: fmt.Sprintf("Recent comments on %s", site),
			Items:       make([]rssItem, 0, len(comments)),
		},
	}

	for _, c := range comments {
		title := fmt.Sprintf("Comment by %s", c.Author)
		threadID := c.PostID
		if p, err := s.posts.GetPost(r.Context(), c.PostID); err == nil {
			threadID = p.ThreadID()
			if t, err := s.posts.GetPost(r.Context(), threadID); err == nil && t.Title != "" {
				title = fmt.Sprintf("Comment on %s by %s", t.Title, c.Author)
			}
		}
		link := forum.Permalink(s.baseURL, threadID, c.PostID)

		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       title,
			Link:        link,
			GUID:        rssGUID{Value: fmt.Sprintf("%s/comments/%d", s.baseURL, c.ID)},
			PubDate:     c.CreatedAtGMT.UTC().Format(time.RFC1123Z),
			Description: c.Content,
		})
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		slog.Error("writing feed", "error", err)
		return
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		slog.Error("encoding feed", "error", err)
	}
}
