package domain

// Page selects a window of a listing, numbered from 1.
type Page struct {
	Number int
	Size   int
}

func NewPage(pageNumber, pageSize int) Page {
	pNumber := 1
	if pageNumber > 0 {
		pNumber = pageNumber
	}

	pSize := 10
	if pageSize > 0 {
		pSize = pageSize
	}

	return Page{
		Number: pNumber,
		Size:   pSize,
	}
}

// Offset returns the index of the first element of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Apply returns the window of the given auctions selected by the page. A nil
// page selects everything.
func (p *Page) Apply(auctions []*Auction) []*Auction {
	if p == nil {
		return auctions
	}
	start := p.Offset()
	if start >= len(auctions) {
		return []*Auction{}
	}
	end := start + p.Size
	if end > len(auctions) {
		end = len(auctions)
	}
	return auctions[start:end]
}
