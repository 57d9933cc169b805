package models

// Level and Category form the optional curriculum grid a Word may belong
// to. Both are advisory: the system must function with zero rows in
// either table (see internal/curriculum).
type Level struct {
	ID    int64  `json:"id" db:"id"`
	Label string `json:"label" db:"label"`
	Order int    `json:"order" db:"order_index"`
}

type Category struct {
	ID    int64  `json:"id" db:"id"`
	Label string `json:"label" db:"label"`
	Order int    `json:"order" db:"order_index"`
}
