package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Info is the bibliographic information recovered from the text on a cover.
type Info struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	CleanedText string   `json:"cleaned_text"`
	ISBNs       []string `json:"isbns"`
}

var (
	// ISBN-13: 978/979 prefix followed by ten digits, optionally split by spaces or hyphens.
	isbn13Pattern = regexp.MustCompile(`97[89](?:[ \-]?\d){10}`)
	// ISBN-10: ten characters, optionally split by hyphens; the last may be the X check digit.
	isbn10Pattern = regexp.MustCompile(`\d(?:-?\d){8}-?[\dXx]`)

	isbnSeparators = regexp.MustCompile(`[ \-]`)

	authorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwritten\s+by\s+(.+)`),
		regexp.MustCompile(`(?i)\bby\s+(.+)`),
		regexp.MustCompile(`(?i)\bauthor\s*:\s*(.+)`),
	}
	titlePattern = regexp.MustCompile(`(?i)\btitle\s*:\s*(.+)`)

	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// minSecondLineLength is the length a second line must exceed before it is treated as
// the continuation of a title split across two lines.
const minSecondLineLength = 3

type isbnMatch struct {
	pos   int
	value string
}

// ISBNs finds ISBN-13 and ISBN-10 codes in text. Separators are stripped and duplicates
// dropped; codes are returned in the order they appear.
func ISBNs(text string) []string {
	var found []isbnMatch

	// Mask ISBN-13 spans so their tails are not read again as ISBN-10 codes.
	masked := []byte(text)
	for _, loc := range codeSpans(isbn13Pattern, masked) {
		found = append(found, isbnMatch{pos: loc[0], value: NormalizeISBN(text[loc[0]:loc[1]])})
		for i := loc[0]; i < loc[1]; i++ {
			masked[i] = ' '
		}
	}
	for _, loc := range codeSpans(isbn10Pattern, masked) {
		found = append(found, isbnMatch{pos: loc[0], value: NormalizeISBN(string(masked[loc[0]:loc[1]]))})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	seen := make(map[string]bool, len(found))
	isbns := make([]string, 0, len(found))
	for _, m := range found {
		if seen[m.value] {
			continue
		}
		seen[m.value] = true
		isbns = append(isbns, m.value)
	}
	return isbns
}

// codeSpans returns the matches of re that are not part of a longer run of digits.
// Letters may touch a code ("ISBN9780439708180") except after an X check digit.
func codeSpans(re *regexp.Regexp, text []byte) [][]int {
	var spans [][]int
	for _, loc := range re.FindAllIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) {
			next := text[loc[1]]
			if isDigit(next) {
				continue
			}
			last := text[loc[1]-1]
			if (last == 'X' || last == 'x') && isLetter(next) {
				continue
			}
		}
		spans = append(spans, loc)
	}
	return spans
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// NormalizeISBN removes separators and upper-cases the X check digit.
func NormalizeISBN(isbn string) string {
	return strings.ToUpper(isbnSeparators.ReplaceAllString(strings.TrimSpace(isbn), ""))
}

// BookInfo derives title, author and ISBNs from OCR text.
//
// The author is taken from the first line carrying a "by", "written by" or "author:" cue and
// the title from the first "title:" line. Without a title cue the first line is the title,
// extended by the second line when that line is longer than three characters, since cover
// designs often split a title across two lines.
func BookInfo(text string) Info {
	lines := Lines(text)

	info := Info{
		ISBNs:       ISBNs(text),
		CleanedText: Clean(text),
	}

	for _, line := range lines {
		if author, ok := firstCapture(authorPatterns, line); ok {
			info.Author = author
			break
		}
	}

	for _, line := range lines {
		if m := titlePattern.FindStringSubmatch(line); len(m) > 1 {
			info.Title = strings.TrimSpace(m[1])
			break
		}
	}

	if info.Title == "" && len(lines) > 0 {
		info.Title = lines[0]
		if len(lines) > 1 && utf8.RuneCountInString(lines[1]) > minSecondLineLength {
			info.Title += " " + lines[1]
		}
	}

	return info
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Clean replaces punctuation with spaces and collapses whitespace.
func Clean(text string) string {
	text = nonWord.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func firstCapture(patterns []*regexp.Regexp, line string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(line); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}
