package product

// Page is one window of a filtered, sorted product listing.
type Page struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Pages int       `json:"pages"`
}

// NewPage fills in the page count.
func NewPage(items []Product, total int64, page, size int) Page {
	if items == nil {
		items = []Product{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page{Items: items, Total: total, Page: page, Size: size, Pages: pages}
}
