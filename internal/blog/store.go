// Package blog loads the markdown posts the demo site serves.
package blog

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Post is a rendered markdown post.
type Post struct {
	Slug  string
	Title string
	HTML  template.HTML
}

// Store holds every post found at load time.
type Store struct {
	posts map[string]Post
	slugs []string
}

// Load renders every markdown file Scan finds in fsys.
func Load(fsys fs.FS) (*Store, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	files, err := Scan(fsys)
	if err != nil {
		return nil, err
	}

	s := &Store{posts: make(map[string]Post, len(files))}
	for _, f := range files {
		content, err := fs.ReadFile(fsys, f.RelPath)
		if err != nil {
			return nil, fmt.Errorf("read post %s: %w", f.RelPath, err)
		}

		doc := md.Parser().Parse(text.NewReader(content))
		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, content, doc); err != nil {
			return nil, fmt.Errorf("render post %s: %w", f.RelPath, err)
		}

		slug := f.Slug
		if _, dup := s.posts[slug]; dup {
			return nil, fmt.Errorf("post %s: duplicate slug %q", f.RelPath, slug)
		}
		s.posts[slug] = Post{
			Slug:  slug,
			Title: extractTitle(doc, content, slug),
			HTML:  template.HTML(buf.String()),
		}
		s.slugs = append(s.slugs, slug)
	}
	sort.Strings(s.slugs)
	return s, nil
}

// Get returns the post with the given slug.
func (s *Store) Get(slug string) (Post, bool) {
	p, ok := s.posts[slug]
	return p, ok
}

// List returns all posts ordered by slug.
func (s *Store) List() []Post {
	out := make([]Post, 0, len(s.slugs))
	for _, slug := range s.slugs {
		out = append(out, s.posts[slug])
	}
	return out
}

// extractTitle returns the first level-1 heading, else the first level-2
// heading, else a title derived from the slug.
func extractTitle(doc ast.Node, source []byte, slug string) string {
	var firstH1, firstH2 string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		switch {
		case heading.Level == 1 && firstH1 == "":
			firstH1 = headingText(heading, source)
			return ast.WalkStop, nil
		case heading.Level == 2 && firstH2 == "":
			firstH2 = headingText(heading, source)
		}
		return ast.WalkSkipChildren, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromSlug(slug)
}

func headingText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// titleFromSlug turns "hello-world" into "Hello World".
func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
