package blog

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"b-second.md":     {Data: []byte("## Only a subheading\n\nBody text.\n")},
		"a-first.md":      {Data: []byte("Intro.\n\n## Sub\n\n# Real *Title*\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")},
		"no_headings.md":  {Data: []byte("Just a paragraph with <b>raw</b> html.\n")},
		"ignored.txt":     {Data: []byte("# not a post")},
		"nested/inner.md": {Data: []byte("# Nested")},
		".drafts/wip.md":  {Data: []byte("# Draft")},
	}

	store, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	posts := store.List()
	wantSlugs := []string{"a-first", "b-second", "nested-inner", "no_headings"}
	if len(posts) != len(wantSlugs) {
		t.Fatalf("List() len = %d, want %d", len(posts), len(wantSlugs))
	}
	for i, p := range posts {
		if p.Slug != wantSlugs[i] {
			t.Errorf("List()[%d].Slug = %q, want %q", i, p.Slug, wantSlugs[i])
		}
	}

	tests := []struct {
		slug      string
		wantTitle string
		contains  string
	}{
		{slug: "a-first", wantTitle: "Real Title", contains: "<table>"},
		{slug: "b-second", wantTitle: "Only a subheading", contains: `<h2 id="only-a-subheading">`},
		{slug: "no_headings", wantTitle: "No Headings", contains: "<p>Just a paragraph"},
		{slug: "nested-inner", wantTitle: "Nested", contains: `<h1 id="nested">`},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			p, ok := store.Get(tt.slug)
			if !ok {
				t.Fatalf("Get(%q) not found", tt.slug)
			}
			if p.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", p.Title, tt.wantTitle)
			}
			if !strings.Contains(string(p.HTML), tt.contains) {
				t.Errorf("HTML missing %q: %s", tt.contains, p.HTML)
			}
		})
	}

	p, _ := store.Get("no_headings")
	if strings.Contains(string(p.HTML), "<b>raw</b>") {
		t.Error("raw HTML in posts should not be rendered")
	}

	if _, ok := store.Get("ignored"); ok {
		t.Error("non-markdown file loaded as post")
	}
	if _, ok := store.Get(".drafts-wip"); ok {
		t.Error("hidden directory scanned")
	}
}

func TestLoad_DuplicateSlug(t *testing.T) {
	fsys := fstest.MapFS{
		"a-b.md": {Data: []byte("# one")},
		"a/b.md": {Data: []byte("# two")},
	}
	if _, err := Load(fsys); err == nil {
		t.Error("Load() should reject colliding slugs")
	}
}

func TestScan(t *testing.T) {
	fsys := fstest.MapFS{
		"top.md":         {Data: []byte("x")},
		"docs/guide.md":  {Data: []byte("x")},
		"docs/image.png": {Data: []byte("x")},
		".git/HEAD.md":   {Data: []byte("x")},
	}
	files, err := Scan(fsys)
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	got := make(map[string]string, len(files))
	for _, f := range files {
		got[f.RelPath] = f.Slug
	}
	want := map[string]string{"top.md": "top", "docs/guide.md": "docs-guide"}
	if len(got) != len(want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
	for rel, slug := range want {
		if got[rel] != slug {
			t.Errorf("Scan()[%s] slug = %q, want %q", rel, got[rel], slug)
		}
	}
}

func TestTitleFromSlug(t *testing.T) {
	tests := map[string]string{
		"hello-world":    "Hello World",
		"reading_list":   "Reading List",
		"single":         "Single",
		"--double--dash": "Double Dash",
	}
	for in, want := range tests {
		if got := titleFromSlug(in); got != want {
			t.Errorf("titleFromSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
