package pantry

import (
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pantrykit/pantry-tracker/internal/extraction"
)

// IDGenerator generates unique IDs for items and waste records
type IDGenerator interface {
	Generate() string
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// ItemImage is one uploaded photo plus its declared content type
type ItemImage struct {
	Data        []byte
	ContentType string
}

// Service handles pantry item enrichment and the expiry sweep
type Service struct {
	db          DB
	vision      extraction.Client
	images      ImageStore
	parser      *extraction.Parser
	normalizer  *extraction.Normalizer
	idGenerator IDGenerator
	timeSource  extraction.TimeSource
	logger      *slog.Logger
}

// NewService creates a new Service with default ID generator, clock and logger
func NewService(db DB, vision extraction.Client, images ImageStore) *Service {
	return NewServiceWithDeps(db, vision, images, &defaultIDGenerator{}, nil, nil)
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, vision extraction.Client, images ImageStore, idGen IDGenerator, timeSource extraction.TimeSource, logger *slog.Logger) *Service {
	if idGen == nil {
		idGen = &defaultIDGenerator{}
	}
	if timeSource == nil {
		timeSource = extraction.SystemTimeSource()
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser := extraction.NewParserWithTimeSource(timeSource)
	return &Service{
		db:          db,
		vision:      vision,
		images:      images,
		parser:      parser,
		normalizer:  extraction.NewNormalizer(parser),
		idGenerator: idGen,
		timeSource:  timeSource,
		logger:      logger,
	}
}

// CreateItem stores a new pantry item plus its photos and runs the
// extraction pipeline over them before the first save. Caller-supplied
// values always win over extracted ones.
func (s *Service) CreateItem(item *Item, labelImage, productImage *ItemImage) (*Item, error) {
	now := s.timeSource.Now()
	item.ID = s.idGenerator.Generate()
	item.Status = StatusActive
	item.CreatedAt = now
	item.UpdatedAt = now

	var err error
	if labelImage != nil {
		item.LabelImagePath, err = s.saveImage(item.ID, "label", labelImage)
		if err != nil {
			return nil, err
		}
	}
	if productImage != nil {
		item.ProductImagePath, err = s.saveImage(item.ID, "product", productImage)
		if err != nil {
			return nil, err
		}
	}

	if labelImage != nil || productImage != nil {
		fields := s.ProcessImages(labelImage, productImage)
		applyFields(item, fields)
	}

	if err := s.db.SaveItem(item); err != nil {
		return nil, fmt.Errorf("saving pantry item: %w", err)
	}
	return item, nil
}

// GetItem retrieves a pantry item by ID
func (s *Service) GetItem(id string) (*Item, error) {
	item, err := s.db.GetItem(id)
	if err != nil {
		return nil, fmt.Errorf("getting pantry item: %w", err)
	}
	return item, nil
}

// ListItems returns all of a user's pantry items
func (s *Service) ListItems(userID string) ([]*Item, error) {
	items, err := s.db.ListItems(userID)
	if err != nil {
		return nil, fmt.Errorf("listing pantry items: %w", err)
	}
	return items, nil
}

// ListWasteRecords returns all of a user's waste-ledger rows
func (s *Service) ListWasteRecords(userID string) ([]*WasteRecord, error) {
	records, err := s.db.ListWasteRecords(userID)
	if err != nil {
		return nil, fmt.Errorf("listing waste records: %w", err)
	}
	return records, nil
}

// ProcessImages runs both photos through the vision collaborator and merges
// the results, label image first. A failed vision call is logged and
// contributes no evidence; it never aborts the pipeline.
func (s *Service) ProcessImages(labelImage, productImage *ItemImage) extraction.Fields {
	label := s.extractFrom(labelImage, "label")
	product := s.extractFrom(productImage, "product")
	return extraction.Merge(s.parser, label, product)
}

func (s *Service) extractFrom(img *ItemImage, role string) *extraction.Fields {
	if img == nil || len(img.Data) == 0 || s.vision == nil {
		return nil
	}

	raw, err := s.vision.ExtractText(img.Data, img.ContentType)
	if err != nil {
		s.logger.Error("Vision extraction failed", "image", role, "error", err)
		return nil
	}

	fields := s.normalizer.Normalize(raw)
	return &fields
}

// EnrichItem re-runs extraction over an item's stored photos and fills in
// fields the user never set. Returns whether anything changed; the item is
// persisted only when it did.
func (s *Service) EnrichItem(id string) (bool, error) {
	item, err := s.db.GetItem(id)
	if err != nil {
		return false, fmt.Errorf("getting item for enrichment: %w", err)
	}

	labelImage := s.loadImage(item.LabelImagePath)
	productImage := s.loadImage(item.ProductImagePath)
	if labelImage == nil && productImage == nil {
		return false, nil
	}

	fields := s.ProcessImages(labelImage, productImage)
	if !applyFields(item, fields) {
		return false, nil
	}

	item.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveItem(item); err != nil {
		return false, fmt.Errorf("saving enriched item: %w", err)
	}
	s.logger.Info("Enriched pantry item", "item_id", item.ID, "name", item.Name)
	return true, nil
}

// SweepExpired transitions the user's overdue active items to expired and
// writes one waste-ledger row per item per day. Items expiring today are
// left alone; only a date strictly before today counts. A failure on one
// item is logged and the sweep continues. Safe to re-run: expired items no
// longer match the active filter and the ledger key blocks duplicate rows.
func (s *Service) SweepExpired(userID string) (int, error) {
	today := dateOnly(s.timeSource.Now())

	items, err := s.db.ListActiveItems(userID)
	if err != nil {
		return 0, fmt.Errorf("listing active items: %w", err)
	}

	expired := 0
	for _, item := range items {
		if !isOverdue(item, today) {
			continue
		}

		created, err := s.db.ExpireItem(item, s.wasteRecordFor(item, today))
		if err != nil {
			s.logger.Error("Failed to expire pantry item", "item_id", item.ID, "name", item.Name, "error", err)
			continue
		}

		expired++
		s.logger.Info("Pantry item expired", "item_id", item.ID, "name", item.Name, "waste_recorded", created)
	}
	return expired, nil
}

// GetExpiringSoonItems returns active, not-yet-expired items whose expiry
// falls within the next days, soonest first. Read-only.
func (s *Service) GetExpiringSoonItems(userID string, days int) ([]*Item, error) {
	today := dateOnly(s.timeSource.Now())
	cutoff := today.AddDate(0, 0, days)

	items, err := s.db.ListActiveItems(userID)
	if err != nil {
		return nil, fmt.Errorf("listing active items: %w", err)
	}

	soon := make([]*Item, 0)
	for _, item := range items {
		if item.ExpiryDate == nil {
			continue
		}
		expiry := dateOnly(*item.ExpiryDate)
		if expiry.Before(today) || expiry.After(cutoff) {
			continue
		}
		soon = append(soon, item)
	}

	sort.Slice(soon, func(i, j int) bool {
		return soon[i].ExpiryDate.Before(*soon[j].ExpiryDate)
	})
	return soon, nil
}

// isOverdue reports whether the sweep should expire the item: expiry known
// and strictly before today, quantity positive. An unknown quantity counts
// as positive (items default to one of whatever they are).
func isOverdue(item *Item, today time.Time) bool {
	if item.ExpiryDate == nil {
		return false
	}
	if item.Quantity != nil && *item.Quantity <= 0 {
		return false
	}
	return dateOnly(*item.ExpiryDate).Before(today)
}

func (s *Service) wasteRecordFor(item *Item, today time.Time) *WasteRecord {
	quantity := 1.0
	if item.Quantity != nil {
		quantity = *item.Quantity
	}
	cost := 0.0
	if item.Price != nil {
		cost = *item.Price
	}

	return &WasteRecord{
		ID:               s.idGenerator.Generate(),
		UserID:           item.UserID,
		PantryItemID:     item.ID,
		OriginalQuantity: quantity,
		QuantityWasted:   quantity, // all of it expired
		Unit:             item.Unit,
		Cost:             cost,
		Reason:           ReasonExpired,
		ReasonDetails:    fmt.Sprintf("Item expired on %s", item.ExpiryDate.Format("2006-01-02")),
		PurchaseDate:     item.PurchaseDate,
		ExpiryDate:       item.ExpiryDate,
		WasteDate:        today,
		CreatedAt:        s.timeSource.Now(),
	}
}

// applyFields copies extracted values onto unset item fields only. User
// input and earlier enrichments always win over the vision model.
func applyFields(item *Item, fields extraction.Fields) bool {
	changed := false
	if item.Name == "" && fields.ProductName != "" {
		item.Name = fields.ProductName
		changed = true
	}
	if item.Brand == "" && fields.Brand != "" {
		item.Brand = fields.Brand
		changed = true
	}
	if item.ExpiryDate == nil && fields.ExpiryDate != nil {
		item.ExpiryDate = fields.ExpiryDate
		changed = true
	}
	if item.Barcode == "" && fields.Barcode != "" {
		item.Barcode = fields.Barcode
		changed = true
	}
	if item.Quantity == nil && fields.Quantity != nil {
		item.Quantity = fields.Quantity
		changed = true
	}
	if item.Unit == "" && fields.Unit != "" {
		item.Unit = fields.Unit
		changed = true
	}
	if item.Calories == nil && fields.Calories != nil {
		item.Calories = fields.Calories
		changed = true
	}
	if item.Protein == nil && fields.Protein != nil {
		item.Protein = fields.Protein
		changed = true
	}
	if item.Carbs == nil && fields.Carbs != nil {
		item.Carbs = fields.Carbs
		changed = true
	}
	if item.Fat == nil && fields.Fat != nil {
		item.Fat = fields.Fat
		changed = true
	}
	if item.Fiber == nil && fields.Fiber != nil {
		item.Fiber = fields.Fiber
		changed = true
	}
	if item.StorageInstructions == "" && fields.StorageInstructions != "" {
		item.StorageInstructions = fields.StorageInstructions
		changed = true
	}
	return changed
}

func (s *Service) saveImage(itemID, role string, img *ItemImage) (string, error) {
	filename := fmt.Sprintf("%s_%s%s", itemID, role, extensionFor(img.ContentType))
	path, err := s.images.Save(filename, img.Data)
	if err != nil {
		return "", fmt.Errorf("saving %s image: %w", role, err)
	}
	return path, nil
}

// loadImage fetches a stored photo, deriving the content type from the
// file extension. A missing photo is just absent evidence.
func (s *Service) loadImage(path string) *ItemImage {
	if path == "" {
		return nil
	}
	data, err := s.images.Get(path)
	if err != nil {
		s.logger.Warn("Failed to load item image", "path", path, "error", err)
		return nil
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	return &ItemImage{Data: data, ContentType: contentType}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/heic", "image/heif":
		return ".heic"
	default:
		return ".jpg"
	}
}

// dateOnly truncates a timestamp to its UTC calendar date
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
