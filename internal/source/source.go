// Package source defines the closed set of knowledge-source categories.
//
// A category tags every stored chunk and every index operation; it is the
// unit of replacement and deletion in the vector index. Adding or removing a
// category is a compile-time-checked change: the fetch dispatch, the profile
// columns, and the index call sites all switch on Category.
package source

import "fmt"

// Category identifies which logical source a chunk or index operation
// belongs to.
type Category string

const (
	// CategoryGitHub is the owner's code-hosting profile.
	CategoryGitHub Category = "github"

	// CategoryPortfolio is the owner's personal website.
	CategoryPortfolio Category = "portfolio"

	// CategoryBio is free text entered directly by the owner.
	CategoryBio Category = "bio"

	// CategoryResume is text extracted from an uploaded résumé document.
	CategoryResume Category = "resume"

	// CategoryLinkedIn is declared but permanently disabled: the site blocks
	// scrapers (999/429), so its fetch path is a no-op. The category stays in
	// the data model so profile diffing and storage treat it uniformly.
	CategoryLinkedIn Category = "linkedin"
)

// All returns every declared category, including the disabled one.
func All() []Category {
	return []Category{
		CategoryGitHub,
		CategoryPortfolio,
		CategoryBio,
		CategoryResume,
		CategoryLinkedIn,
	}
}

// Valid reports whether c is a declared category.
func (c Category) Valid() bool {
	switch c {
	case CategoryGitHub, CategoryPortfolio, CategoryBio, CategoryResume, CategoryLinkedIn:
		return true
	}
	return false
}

// Fetchable reports whether the category has a working fetch path.
// bio is owner-provided text, resume comes from uploads, and linkedin is
// disabled; only github and portfolio are fetched from a URL.
func (c Category) Fetchable() bool {
	return c == CategoryGitHub || c == CategoryPortfolio
}

// Parse converts a string into a Category, rejecting unknown values.
func Parse(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown source category %q", s)
	}
	return c, nil
}

func (c Category) String() string { return string(c) }
