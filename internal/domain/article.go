package domain

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Article is an item from the Alignment Feed dataset. The backend is
// authoritative for every field; this service only passes articles
// through and mutates the per-user feedback flags optimistically.
// PublishedAt stays a string so ISO-8601 values survive round trips
// byte-for-byte.
type Article struct {
	HashID      string `json:"hash_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Link        string `json:"link" validate:"required,url"`
	TextStart   string `json:"text_start"`
	Authors     string `json:"authors"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at" validate:"required"`
	HaveRead    *bool  `json:"have_read,omitempty"`
	ThumbsUp    *bool  `json:"thumbs_up,omitempty"`
	ThumbsDown  *bool  `json:"thumbs_down,omitempty"`
}

// ArticlesResponse is the envelope the upstream API wraps article lists in.
type ArticlesResponse struct {
	Data     []Article      `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ParseResult is a discriminated parse outcome. Callers check OK and
// handle Err; parsing never panics and never returns a partial Data.
type ParseResult struct {
	OK   bool
	Data *ArticlesResponse
	Err  error
}

var articleValidator = validator.New()

// ParseArticles decodes and validates an upstream article-list payload.
// Any schema mismatch yields a failed result rather than an error value
// escaping to rendering code.
func ParseArticles(raw []byte) ParseResult {
	var resp ArticlesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ParseResult{Err: fmt.Errorf("decode articles response: %w", err)}
	}
	for i := range resp.Data {
		if err := articleValidator.Struct(&resp.Data[i]); err != nil {
			return ParseResult{Err: fmt.Errorf("article %d failed validation: %w", i, err)}
		}
	}
	if resp.Data == nil {
		resp.Data = []Article{}
	}
	return ParseResult{OK: true, Data: &resp}
}

// ParseArticle decodes and validates a single article payload.
func ParseArticle(raw []byte) (*Article, error) {
	var a Article
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode article: %w", err)
	}
	if err := articleValidator.Struct(&a); err != nil {
		return nil, fmt.Errorf("article failed validation: %w", err)
	}
	return &a, nil
}
