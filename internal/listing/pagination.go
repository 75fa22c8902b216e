package listing

import (
	"net/url"
	"strconv"
)

// DefaultSummaryContext is the number of pages shown around the current one.
const DefaultSummaryContext = 4

// PaginatedList is one page of items plus the navigation state templates
// need. Offsets are zero based item offsets carried in the GetVar query
// variable.
type PaginatedList struct {
	Items           []ItemView    `json:"items"`
	Total           int           `json:"total"`
	PageLength      int           `json:"page_length"`
	Offset          int           `json:"offset"`
	CurrentPage     int           `json:"current_page"`
	TotalPages      int           `json:"total_pages"`
	MoreThanOnePage bool          `json:"more_than_one_page"`
	NotFirstPage    bool          `json:"not_first_page"`
	NotLastPage     bool          `json:"not_last_page"`
	PrevLink        string        `json:"prev_link,omitempty"`
	NextLink        string        `json:"next_link,omitempty"`
	GetVar          string        `json:"get_var"`
	Summary         []SummaryPage `json:"summary"`

	baseURL string
}

// SummaryPage is one entry of a pagination summary. Gaps have PageNum 0 and
// an empty Link.
type SummaryPage struct {
	PageNum     int    `json:"page_num"`
	Link        string `json:"link"`
	CurrentBool bool   `json:"current"`
}

// Gap reports whether the entry stands for skipped pages.
func (p SummaryPage) Gap() bool {
	return p.PageNum == 0
}

// NewPaginatedList builds pagination state for items. A pageLength of zero
// puts everything on one page.
func NewPaginatedList(items []ItemView, total, pageLength, offset int, getVar, baseURL string) *PaginatedList {
	if offset < 0 {
		offset = 0
	}
	if pageLength < 0 {
		pageLength = 0
	}
	if items == nil {
		items = []ItemView{}
	}
	p := &PaginatedList{
		Items:      items,
		Total:      total,
		PageLength: pageLength,
		Offset:     offset,
		GetVar:     getVar,
		baseURL:    baseURL,
	}

	p.CurrentPage = 1
	p.TotalPages = 1
	if pageLength > 0 {
		p.CurrentPage = offset/pageLength + 1
		p.TotalPages = (total + pageLength - 1) / pageLength
		if p.TotalPages < 1 {
			p.TotalPages = 1
		}
	}
	p.MoreThanOnePage = p.TotalPages > 1
	p.NotFirstPage = p.CurrentPage != 1
	p.NotLastPage = p.CurrentPage < p.TotalPages
	if p.NotFirstPage {
		prev := offset - pageLength
		if prev < 0 {
			prev = 0
		}
		p.PrevLink = p.link(prev)
	}
	if p.NotLastPage {
		p.NextLink = p.link(offset + pageLength)
	}
	p.Summary = p.PaginationSummary(DefaultSummaryContext)
	return p
}

// Pages lists every page with its link.
func (p *PaginatedList) Pages() []SummaryPage {
	out := make([]SummaryPage, 0, p.TotalPages)
	for i := 0; i < p.TotalPages; i++ {
		num := i + 1
		out = append(out, SummaryPage{
			PageNum:     num,
			Link:        p.link(i * p.PageLength),
			CurrentBool: num == p.CurrentPage,
		})
	}
	return out
}

// PaginationSummary lists the first and last page, the pages within context
// of the current one, and a gap entry on each side where pages are skipped.
// An odd context is rounded down.
func (p *PaginatedList) PaginationSummary(context int) []SummaryPage {
	current := p.CurrentPage
	total := p.TotalPages
	if context < 0 {
		context = 0
	}
	if context%2 != 0 {
		context--
	}

	offset := context / 2
	if current == 1 || current == total {
		offset = context
	}
	left := max(current-offset, 1)
	right := min(current+offset, total)
	rangeLow, rangeHigh := current-offset, current+offset
	if left+context > total {
		left = total - context
	}

	out := make([]SummaryPage, 0, min(total, context+4))
	for i := 0; i < total; i++ {
		num := i + 1
		gap := num != 1 && num != total && (num == left-1 || num == right+1)
		switch {
		case gap:
			out = append(out, SummaryPage{})
		case num == 1 || num == total || (num >= rangeLow && num <= rangeHigh):
			out = append(out, SummaryPage{
				PageNum:     num,
				Link:        p.link(i * p.PageLength),
				CurrentBool: num == current,
			})
		}
	}
	return out
}

func (p *PaginatedList) link(offset int) string {
	return setGetVar(p.baseURL, p.GetVar, strconv.Itoa(offset))
}

// setGetVar returns rawURL with name set to value, keeping every other part.
func setGetVar(rawURL, name, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		parsed = &url.URL{}
	}
	query := parsed.Query()
	query.Set(name, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
