package catalog

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"example.com/storefront/internal/domain/money"
	domproduct "example.com/storefront/internal/domain/product"
)

type BucketName string

const (
	BucketTrending    BucketName = "trending"
	BucketClothing    BucketName = "clothing"
	BucketElectronics BucketName = "electronics"
)

const (
	DemoNotice         = "Showing demo products. Backend connection required for real data."
	defaultDescription = "Premium quality product"
	defaultImageURL    = "img/img1.png"
	trendingFallback   = 3
)

type bucketDef struct {
	name         BucketName
	title        string
	icon         string
	emptyMessage string
	keywords     []string
}

var buckets = []bucketDef{
	{name: BucketTrending, title: "Trending", icon: "🌟", emptyMessage: "No trending products found", keywords: []string{"trending"}},
	{name: BucketClothing, title: "Clothing", icon: "👗", emptyMessage: "No clothing products available", keywords: []string{"clothing"}},
	{name: BucketElectronics, title: "Electronics", icon: "💻", emptyMessage: "No electronics products available", keywords: []string{"electronics", "computers", "audio"}},
}

// Card is a product as displayed in a bucket, with display defaults applied.
type Card struct {
	ProductID   int64
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       decimal.Decimal
	PriceLabel  string
}

type Bucket struct {
	Name         BucketName
	Title        string
	Icon         string
	Cards        []Card
	Empty        bool
	EmptyMessage string
	Notice       string
	Retry        bool
}

type Storefront struct {
	Buckets []Bucket
	Demo    bool
	Error   string
}

func (s Storefront) Bucket(name BucketName) (Bucket, bool) {
	for _, b := range s.Buckets {
		if b.Name == name {
			return b, true
		}
	}
	return Bucket{}, false
}

// Recorder observes catalog fetch outcomes.
type Recorder interface {
	CatalogFetch(result string)
}

type noopRecorder struct{}

func (noopRecorder) CatalogFetch(string) {}

type Service struct {
	source   domproduct.Source
	unit     currency.Unit
	logger   *slog.Logger
	recorder Recorder
}

func NewService(source domproduct.Source, unit currency.Unit, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{source: source, unit: unit, logger: logger, recorder: recorder}
}

// LoadProducts fetches the catalog and groups it into buckets. When the
// catalog cannot be fetched the demo set is shown instead, flagged as such.
func (s *Service) LoadProducts(ctx context.Context) Storefront {
	products, err := s.source.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog fetch failed, showing demo products", "error", err)
		s.recorder.CatalogFetch("fallback")

		sf := s.partition(DemoProducts())
		sf.Demo = true
		sf.Error = err.Error()
		for i := range sf.Buckets {
			sf.Buckets[i].Notice = DemoNotice
			sf.Buckets[i].Retry = true
		}
		return sf
	}

	if len(products) == 0 {
		s.recorder.CatalogFetch("empty")
	} else {
		s.recorder.CatalogFetch("ok")
	}
	return s.partition(products)
}

func (s *Service) partition(products []domproduct.Product) Storefront {
	grouped := Partition(products)

	sf := Storefront{Buckets: make([]Bucket, 0, len(buckets))}
	for _, def := range buckets {
		b := Bucket{
			Name:         def.name,
			Title:        def.title,
			Icon:         def.icon,
			EmptyMessage: def.emptyMessage,
		}
		for _, p := range grouped[def.name] {
			b.Cards = append(b.Cards, s.card(p))
		}
		b.Empty = len(b.Cards) == 0
		sf.Buckets = append(sf.Buckets, b)
	}
	return sf
}

// Partition groups products by case-insensitive category keywords. Matching
// is independent per bucket, so a product can land in several buckets or in
// none. Products without a category are trending; if nothing is trending the
// first three products stand in.
func Partition(products []domproduct.Product) map[BucketName][]domproduct.Product {
	out := make(map[BucketName][]domproduct.Product, len(buckets))
	for _, b := range buckets {
		for _, p := range products {
			if b.name == BucketTrending && p.Category == "" {
				out[b.name] = append(out[b.name], p)
				continue
			}
			if p.HasCategory(b.keywords...) {
				out[b.name] = append(out[b.name], p)
			}
		}
	}
	if len(out[BucketTrending]) == 0 && len(products) > 0 {
		out[BucketTrending] = products[:min(trendingFallback, len(products))]
	}
	return out
}

func (s *Service) card(p domproduct.Product) Card {
	c := Card{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		PriceLabel:  money.New(p.Price, s.unit).String(),
	}
	if c.Description == "" {
		c.Description = defaultDescription
	}
	if c.ImageURL == "" {
		c.ImageURL = defaultImageURL
	}
	return c
}
