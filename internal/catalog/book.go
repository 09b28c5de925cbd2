package catalog

import (
	"regexp"
	"strings"
)

// Book is a candidate record returned by a book catalog search.
// Every attribute is optional; adapters leave missing values at their zero value.
type Book struct {
	ID            string       `json:"id,omitempty" yaml:"id,omitempty"`
	Title         string       `json:"title" yaml:"title"`
	Subtitle      string       `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Authors       []string     `json:"authors,omitempty" yaml:"authors,omitempty"`
	Publisher     string       `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Identifiers   []Identifier `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	ImageLinks    ImageLinks   `json:"image_links" yaml:"image_links,omitempty"`
	Description   string       `json:"description,omitempty" yaml:"description,omitempty"`
	PublishedDate string       `json:"published_date,omitempty" yaml:"published_date,omitempty"`
	PageCount     int          `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	Categories    []string     `json:"categories,omitempty" yaml:"categories,omitempty"`
	AverageRating float64      `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	RatingsCount  int          `json:"ratings_count,omitempty" yaml:"ratings_count,omitempty"`
	InfoLink      string       `json:"info_link,omitempty" yaml:"info_link,omitempty"`
}

// Identifier types used by the catalog adapters.
const (
	IdentifierISBN10 = "ISBN_10"
	IdentifierISBN13 = "ISBN_13"
	IdentifierOther  = "OTHER"
)

// Identifier is a typed industry identifier such as an ISBN.
type Identifier struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// ImageLinks holds cover image URLs keyed by size.
type ImageLinks struct {
	SmallThumbnail string `json:"small_thumbnail,omitempty" yaml:"small_thumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Small          string `json:"small,omitempty" yaml:"small,omitempty"`
	Medium         string `json:"medium,omitempty" yaml:"medium,omitempty"`
	Large          string `json:"large,omitempty" yaml:"large,omitempty"`
	ExtraLarge     string `json:"extra_large,omitempty" yaml:"extra_large,omitempty"`
}

// Cover sizes in descending order of quality.
const (
	CoverNone           = ""
	CoverSmallThumbnail = "smallThumbnail"
	CoverThumbnail      = "thumbnail"
	CoverMedium         = "medium"
	CoverLarge          = "large"
	CoverExtraLarge     = "extraLarge"
)

// BestCover returns the name of the largest cover size available.
// The "small" size is not ranked.
func (l ImageLinks) BestCover() string {
	switch {
	case l.ExtraLarge != "":
		return CoverExtraLarge
	case l.Large != "":
		return CoverLarge
	case l.Medium != "":
		return CoverMedium
	case l.Thumbnail != "":
		return CoverThumbnail
	case l.SmallThumbnail != "":
		return CoverSmallThumbnail
	default:
		return CoverNone
	}
}

// BestCoverURL returns the URL of the largest cover available, including the "small" size.
func (l ImageLinks) BestCoverURL() string {
	for _, u := range []string{l.ExtraLarge, l.Large, l.Medium, l.Small, l.Thumbnail, l.SmallThumbnail} {
		if u != "" {
			return u
		}
	}
	return ""
}

var nonISBNChars = regexp.MustCompile(`[^0-9Xx]`)

// NormalizedISBNs returns the book's ISBN identifiers with separators stripped.
func (b Book) NormalizedISBNs() []string {
	var isbns []string
	for _, id := range b.Identifiers {
		if id.Type == IdentifierOther {
			continue
		}
		v := strings.ToUpper(nonISBNChars.ReplaceAllString(id.Value, ""))
		if v != "" {
			isbns = append(isbns, v)
		}
	}
	return isbns
}

// HasISBN reports whether any of the given normalized ISBNs identifies the book.
func (b Book) HasISBN(isbns []string) bool {
	if len(isbns) == 0 {
		return false
	}
	own := b.NormalizedISBNs()
	for _, want := range isbns {
		for _, have := range own {
			if want == have {
				return true
			}
		}
	}
	return false
}

// AuthorLine joins the authors into one string.
func (b Book) AuthorLine() string {
	return strings.Join(b.Authors, ", ")
}
