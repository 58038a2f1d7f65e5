package catalog

import "time"

const (
	EventProductCreated     = "ProductCreated"
	EventProductUpdated     = "ProductUpdated"
	EventProductImagesSet   = "ProductImagesSet"
	EventProductFeatureSet  = "ProductFeatureSet"
	EventProductArchived    = "ProductArchived"
)

// Image is one entry of a product's ordered image list
type Image struct {
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

type ProductCreated struct {
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	OriginalPrice int64     `json:"original_price,omitempty"`
	Inventory     int       `json:"inventory"`
	Category      string    `json:"category"`
	Collections   []string  `json:"collections,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ProductUpdated struct {
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	OriginalPrice int64     `json:"original_price,omitempty"`
	Inventory     int       `json:"inventory"`
	IsActive      bool      `json:"is_active"`
	Category      string    `json:"category"`
	Collections   []string  `json:"collections,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductImagesSet replaces the full image list of a product
type ProductImagesSet struct {
	ProductID string    `json:"product_id"`
	Images    []Image   `json:"images"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductFeatureSet struct {
	ProductID  string    `json:"product_id"`
	IsFeatured bool      `json:"is_featured"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProductArchived soft-deletes a product; archived products are not purchasable
type ProductArchived struct {
	ProductID  string    `json:"product_id"`
	ArchivedAt time.Time `json:"archived_at"`
}
