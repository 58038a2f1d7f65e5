package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/craftshop/internal/domain/aggregate"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const AggregateType = "Product"

// Categories and collections are a fixed vocabulary, not free text.
var (
	Categories = []string{"ceramics", "textiles", "woodwork", "jewelry", "glass", "paper", "home"}

	Collections = []string{"new-arrivals", "gift-ideas", "seasonal", "limited-edition", "sale"}
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductArchived  = errors.New("product is archived")
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrInvalidInventory = errors.New("inventory must not be negative")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrMultiplePrimary  = errors.New("at most one image may be primary")
)

// Product is the event-sourced catalog aggregate. Prices are integer
// minor units.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	OriginalPrice int64     `json:"original_price,omitempty"`
	Inventory     int       `json:"inventory"`
	IsActive      bool      `json:"is_active"`
	IsFeatured    bool      `json:"is_featured"`
	Category      string    `json:"category"`
	Collections   []string  `json:"collections,omitempty"`
	Images        []Image   `json:"images,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

func (p *Product) GetID() string    { return p.ID }
func (p *Product) GetVersion() int  { return p.Version }
func (p *Product) SetVersion(v int) { p.Version = v }

// ApplyEvent applies a single event to the product state
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.Name = data.Name
		p.Slug = data.Slug
		p.Description = data.Description
		p.Price = data.Price
		p.OriginalPrice = data.OriginalPrice
		p.Inventory = data.Inventory
		p.IsActive = true
		p.Category = data.Category
		p.Collections = data.Collections
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Name = data.Name
		p.Description = data.Description
		p.Price = data.Price
		p.OriginalPrice = data.OriginalPrice
		p.Inventory = data.Inventory
		p.IsActive = data.IsActive
		p.Category = data.Category
		p.Collections = data.Collections
		p.UpdatedAt = data.UpdatedAt
	case EventProductImagesSet:
		var data ProductImagesSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Images = data.Images
		p.UpdatedAt = data.UpdatedAt
	case EventProductFeatureSet:
		var data ProductFeatureSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.IsFeatured = data.IsFeatured
		p.UpdatedAt = data.UpdatedAt
	case EventProductArchived:
		var data ProductArchived
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.IsActive = false
		p.IsFeatured = false
		p.UpdatedAt = data.ArchivedAt
	}
	p.Version = event.Version
	return nil
}

// Service handles catalog write operations
type Service struct {
	eventStore store.EventStoreInterface
	log        *logrus.Entry
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{
		eventStore: es,
		log:        logrus.WithField("component", "catalog"),
	}
}

func (s *Service) load(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.Load(ctx, s.eventStore, productID, func() *Product {
		return &Product{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

func validCollections(tags []string) bool {
	for _, tag := range tags {
		known := false
		for _, c := range Collections {
			if c == tag {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return true
}

// CreateInput carries the fields for a new product. Slug is derived from
// the name when empty.
type CreateInput struct {
	Name          string
	Slug          string
	Description   string
	Price         int64
	OriginalPrice int64
	Inventory     int
	Category      string
	Collections   []string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if in.Name == "" {
		return nil, ErrInvalidName
	}
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if in.Inventory < 0 {
		return nil, ErrInvalidInventory
	}
	if !validCategory(in.Category) || !validCollections(in.Collections) {
		return nil, ErrInvalidCategory
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}

	productID := uuid.New().String()
	now := time.Now()

	event := ProductCreated{
		ProductID:     productID,
		Name:          in.Name,
		Slug:          slug,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Inventory:     in.Inventory,
		Category:      in.Category,
		Collections:   in.Collections,
		CreatedAt:     now,
	}

	if _, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event); err != nil {
		return nil, err
	}

	return &Product{
		ID:            productID,
		Name:          in.Name,
		Slug:          slug,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Inventory:     in.Inventory,
		IsActive:      true,
		Category:      in.Category,
		Collections:   in.Collections,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}, nil
}

// UpdateInput carries the mutable fields of a product
type UpdateInput struct {
	Name          string
	Description   string
	Price         int64
	OriginalPrice int64
	Inventory     int
	IsActive      bool
	Category      string
	Collections   []string
}

func (s *Service) Update(ctx context.Context, productID string, in UpdateInput) error {
	if in.Name == "" {
		return ErrInvalidName
	}
	if in.Price < 0 {
		return ErrInvalidPrice
	}
	if in.Inventory < 0 {
		return ErrInvalidInventory
	}
	if !validCategory(in.Category) || !validCollections(in.Collections) {
		return ErrInvalidCategory
	}

	p, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	event := ProductUpdated{
		ProductID:     productID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Inventory:     in.Inventory,
		IsActive:      in.IsActive,
		Category:      in.Category,
		Collections:   in.Collections,
		UpdatedAt:     time.Now(),
	}

	return s.append(ctx, p, EventProductUpdated, event)
}

// SetImages replaces the product's image list. At most one image may be
// marked primary.
func (s *Service) SetImages(ctx context.Context, productID string, images []Image) error {
	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return ErrMultiplePrimary
	}

	p, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	event := ProductImagesSet{
		ProductID: productID,
		Images:    images,
		UpdatedAt: time.Now(),
	}

	return s.append(ctx, p, EventProductImagesSet, event)
}

// SetFeatured toggles the featured flag. Archived products cannot be featured.
func (s *Service) SetFeatured(ctx context.Context, productID string, featured bool) error {
	p, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if featured && !p.IsActive {
		return ErrProductArchived
	}

	event := ProductFeatureSet{
		ProductID:  productID,
		IsFeatured: featured,
		UpdatedAt:  time.Now(),
	}

	return s.append(ctx, p, EventProductFeatureSet, event)
}

// Archive soft-deletes a product; it disappears from the storefront and can
// no longer be added to carts.
func (s *Service) Archive(ctx context.Context, productID string) error {
	p, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return ErrProductArchived
	}

	event := ProductArchived{
		ProductID:  productID,
		ArchivedAt: time.Now(),
	}

	return s.append(ctx, p, EventProductArchived, event)
}

// append stores the event, applies it to the loaded product, and checks
// the snapshot threshold. The apply must happen first so a threshold
// snapshot never captures pre-event state.
func (s *Service) append(ctx context.Context, p *Product, eventType string, data any) error {
	stored, err := s.eventStore.Append(ctx, p.ID, AggregateType, eventType, data)
	if err != nil {
		return err
	}
	if stored != nil {
		if err := p.ApplyEvent(*stored); err != nil {
			return err
		}
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, p, AggregateType); err != nil {
		s.log.WithError(err).WithField("product_id", p.ID).Warn("failed to create snapshot")
	}
	return nil
}
