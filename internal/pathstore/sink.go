package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

// SceneNode is the stored form of one scene.
type SceneNode struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

// ChapterMeta is the stored summary of one chapter.
type ChapterMeta struct {
	ID         string                `json:"id"`
	Book       string                `json:"book"`
	Title      string                `json:"title"`
	Subtitle   string                `json:"subtitle,omitempty"`
	SceneCount int                   `json:"scene_count"`
	Source     manuscript.SourceMeta `json:"source"`
	Stamp      manuscript.Stamp      `json:"stamp"`
}

// Sink stores imported chapters under books/{book}/chapters/{id}.
type Sink struct {
	client *Client
}

func NewSink(c *Client) *Sink {
	return &Sink{client: c}
}

// SaveChapter replaces any previous copy of the chapter, then writes one
// node per scene followed by the chapter meta. The meta is written last so
// a chapter only lists once all of its scenes are stored.
func (s *Sink) SaveChapter(ctx context.Context, book string, ch *manuscript.Chapter, stamp manuscript.Stamp) error {
	bookKey := BookKey(book)
	id := ChapterID(ch)
	key := ChapterKey(book, id)

	if err := s.client.DeleteNode(ctx, key, true); err != nil {
		return fmt.Errorf("clear chapter %s: %w", key, err)
	}

	for i, sc := range ch.Scenes {
		node := SceneNode{
			Index:    i + 1,
			Title:    sc.Title,
			Body:     sc.Body,
			Location: sc.Location,
			Notes:    sc.Notes,
		}
		if err := s.client.PutNode(ctx, SceneKey(book, id, i+1), NodeRequest{Value: node, Source: ch.Source.Name}); err != nil {
			return fmt.Errorf("store scene %d: %w", i+1, err)
		}
	}

	meta := ChapterMeta{
		ID:         id,
		Book:       book,
		Title:      ch.Title,
		Subtitle:   ch.Subtitle,
		SceneCount: len(ch.Scenes),
		Source:     ch.Source,
		Stamp:      stamp,
	}
	if err := s.client.PutNode(ctx, key+"/meta", NodeRequest{Value: meta, Source: ch.Source.Name}); err != nil {
		return fmt.Errorf("store chapter meta: %w", err)
	}

	if err := s.client.PutLink(ctx, LinkRequest{From: bookKey, To: key, Weight: 1, Summary: ch.Title}); err != nil {
		return fmt.Errorf("link chapter: %w", err)
	}
	return nil
}

// ListChapters returns the stored chapters of book, ordered by source name.
func (s *Sink) ListChapters(ctx context.Context, book string) ([]ChapterMeta, error) {
	nodes, err := s.client.ListChildren(ctx, BookKey(book)+"/chapters", 0)
	if err != nil {
		return nil, err
	}
	var out []ChapterMeta
	for _, n := range nodes {
		if path.Base(n.Key) != "meta" {
			continue
		}
		var m ChapterMeta
		if err := json.Unmarshal(n.Value, &m); err != nil {
			return nil, fmt.Errorf("decode chapter %s: %w", n.Key, err)
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Source.Name) < strings.ToLower(out[j].Source.Name)
	})
	return out, nil
}

// ChapterDetail is a stored chapter with its scenes in order.
type ChapterDetail struct {
	ChapterMeta
	Scenes []SceneNode `json:"scenes"`
}

// GetChapter reads one chapter's meta node and scenes. A chapter that was
// never stored, or whose meta is not yet written, returns nil, nil.
func (s *Sink) GetChapter(ctx context.Context, book, id string) (*ChapterDetail, error) {
	key := ChapterKey(book, Slug(id))
	node, err := s.client.GetNode(ctx, key+"/meta")
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	var detail ChapterDetail
	if err := json.Unmarshal(node.Value, &detail.ChapterMeta); err != nil {
		return nil, fmt.Errorf("decode chapter %s: %w", key, err)
	}

	nodes, err := s.client.ListChildren(ctx, key+"/scenes", 0)
	if err != nil {
		return nil, err
	}
	detail.Scenes = make([]SceneNode, 0, len(nodes))
	for _, n := range nodes {
		var sc SceneNode
		if err := json.Unmarshal(n.Value, &sc); err != nil {
			return nil, fmt.Errorf("decode scene %s: %w", n.Key, err)
		}
		detail.Scenes = append(detail.Scenes, sc)
	}
	sort.SliceStable(detail.Scenes, func(i, j int) bool {
		return detail.Scenes[i].Index < detail.Scenes[j].Index
	})
	return &detail, nil
}

// DeleteChapter removes a chapter with all of its scenes.
func (s *Sink) DeleteChapter(ctx context.Context, book, id string) error {
	return s.client.DeleteNode(ctx, ChapterKey(book, Slug(id)), true)
}

func BookKey(book string) string {
	return "books/" + Slug(book)
}

func ChapterKey(book, id string) string {
	return BookKey(book) + "/chapters/" + id
}

func SceneKey(book, id string, index int) string {
	return fmt.Sprintf("%s/scenes/%04d", ChapterKey(book, id), index)
}

// ChapterID derives a stable id from the chapter's source name, falling back
// to its title and then its content hash.
func ChapterID(ch *manuscript.Chapter) string {
	name := strings.TrimSuffix(ch.Source.Name, path.Ext(ch.Source.Name))
	if id := Slug(name); id != "" {
		return id
	}
	if id := Slug(ch.Title); id != "" {
		return id
	}
	if len(ch.Source.ContentHash) >= 16 {
		return ch.Source.ContentHash[:16]
	}
	return "untitled"
}

// Slug lowercases s, strips diacritics and collapses everything that is not
// a letter or digit into single dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			dash = true
		}
	}
	return b.String()
}
