// Package domain holds the InfoBox content model and the repository-neutral
// search types shared by the storage, service and API layers.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no content item has the requested id or slug.
	ErrNotFound = errors.New("content not found")
	// ErrSlugTaken is returned when a create or update would duplicate a slug.
	ErrSlugTaken = errors.New("slug already in use")
)

// Term is a category or tag. Stored documents may hold either a bare name or a
// {name, slug} object; both decode into Term, a bare name leaving Slug empty.
type Term struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// UnmarshalJSON accepts "name" or {"name": ..., "slug": ...}.
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("decode term name: %w", err)
		}
		*t = Term{Name: name}
		return nil
	}

	type plain Term
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode term: %w", err)
	}
	*t = Term(p)
	return nil
}

// ContentItem is one blog post as stored in the content repository.
type ContentItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	Author      string    `json:"author,omitempty"`
	Image       string    `json:"image,omitempty"`
	Category    *Term     `json:"category,omitempty"`
	Tags        []Term    `json:"tags,omitempty"`
	Date        time.Time `json:"date"`
	Views       int64     `json:"views"`
	Featured    bool      `json:"featured,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryName returns the category name, or "" when the item has none.
func (c *ContentItem) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return c.Category.Name
}

// TagNames returns the tag names in stored order.
func (c *ContentItem) TagNames() []string {
	names := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		names[i] = t.Name
	}
	return names
}

// ContentInput is the editable part of a content item, as submitted by an admin.
type ContentInput struct {
	Title       string     `json:"title"       binding:"required"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Image       string     `json:"image"`
	Category    *Term      `json:"category"`
	Tags        []Term     `json:"tags"`
	Date        *time.Time `json:"date"`
	Featured    bool       `json:"featured"`
}

// Normalize trims names and drops tags without one.
func (in *ContentInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Category != nil {
		in.Category.Name = strings.TrimSpace(in.Category.Name)
		if in.Category.Name == "" {
			in.Category = nil
		}
	}

	tags := in.Tags[:0]
	for _, t := range in.Tags {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
}
