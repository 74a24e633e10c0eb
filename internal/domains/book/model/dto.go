package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ListBooksRequest carries the parsed query parameters for the catalog.
type ListBooksRequest struct {
	Page    int
	PerPage int
	Search  string
	Sort    string
}

var allowedSorts = map[string]string{
	"title":      "b.title ASC",
	"title_desc": "b.title DESC",
	"newest":     "b.created_at DESC",
	"price_asc":  "b.price ASC",
	"price_desc": "b.price DESC",
}

// OrderBy maps the sort parameter to a whitelisted ORDER BY clause.
// Default ordering is title ascending.
func (r ListBooksRequest) OrderBy() (string, bool) {
	if r.Sort == "" {
		return allowedSorts["title"], true
	}
	clause, ok := allowedSorts[r.Sort]
	return clause, ok
}

func (r ListBooksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Page, validation.Min(1)),
		validation.Field(&r.PerPage, validation.Min(1), validation.Max(100)),
		validation.Field(&r.Sort, validation.By(func(interface{}) error {
			if _, ok := r.OrderBy(); !ok {
				return ErrInvalidSort
			}
			return nil
		})),
	)
}

// CreateBookRequest is the admin payload for adding a title.
type CreateBookRequest struct {
	Title    string   `json:"title"`
	Author   *string  `json:"author"`
	CoverURL *string  `json:"cover_url"`
	Images   []string `json:"images"`
	Stock    int      `json:"stock"`
	Price    float64  `json:"price"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 500),
		),
		validation.Field(&r.Author, validation.Length(1, 255)),
		validation.Field(&r.Stock, validation.Min(0).Error("stock must not be negative")),
		validation.Field(&r.Price,
			validation.Required.Error("price is required"),
			validation.Min(0.01).Error("price must be positive"),
		),
	)
}

// UpdateBookRequest is the admin payload for editing a title. All
// fields are required; partial updates go through the same form the
// frontend renders fully populated.
type UpdateBookRequest struct {
	Title    string   `json:"title"`
	Author   *string  `json:"author"`
	CoverURL *string  `json:"cover_url"`
	Images   []string `json:"images"`
	Stock    int      `json:"stock"`
	Price    float64  `json:"price"`
}

func (r UpdateBookRequest) Validate() error {
	return CreateBookRequest(r).Validate()
}

// DeleteBookResponse reports what was removed.
type DeleteBookResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
