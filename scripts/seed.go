package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/database"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/search"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/typesense"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/config"
)

// schema creates everything the service reads and writes. Statements are
// idempotent so the seeder can run against an existing database.
const schema = `
CREATE TABLE IF NOT EXISTS providers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	is_verified BOOLEAN,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS listings (
	id UUID PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	images TEXT[],
	rating DOUBLE PRECISION,
	review_count INTEGER,
	base_price DOUBLE PRECISION,
	location TEXT,
	category TEXT NOT NULL,
	tags TEXT[],
	provider_id UUID NOT NULL REFERENCES providers(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_category ON listings (category) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_listings_tags ON listings USING GIN (tags);

CREATE TABLE IF NOT EXISTS search_queries (
	id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	filters JSONB NOT NULL DEFAULT '{}',
	result_count INTEGER NOT NULL,
	user_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_queries_created_at ON search_queries (created_at);
CREATE INDEX IF NOT EXISTS idx_search_queries_query ON search_queries (query);

CREATE TABLE IF NOT EXISTS search_performance_samples (
	id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	response_time_ms DOUBLE PRECISION NOT NULL,
	result_count INTEGER NOT NULL,
	from_cache BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_performance_created_at ON search_performance_samples (created_at);
`

type seedProvider struct {
	id       string
	name     string
	verified *bool
}

func main() {
	observability.InitLogger("mounasabet-seed", os.Getenv("APP_ENV"))
	logger := observability.ComponentLogger("seed")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Fatal().Err(err).Msg("failed to create schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		logger.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				listings,
				providers,
				search_queries,
				search_performance_samples
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	var searchRepo *search.TypesenseAdapter
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err != nil {
		logger.Warn().Err(err).Msg("Typesense unavailable, seeding catalog only")
	} else {
		searchRepo = search.NewTypesenseAdapter(tsClient)
		if err := searchRepo.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to init search index schema")
			searchRepo = nil
		}
	}

	listingRepo := database.NewListingAdapter(pgClient)

	yes := true
	providers := []seedProvider{
		{id: uuid.New().String(), name: "Dar El Afrah Events", verified: &yes},
		{id: uuid.New().String(), name: "Carthage Catering Co", verified: &yes},
		{id: uuid.New().String(), name: "Lens & Light Studio", verified: nil},
		{id: uuid.New().String(), name: "Medina Sound & Stage", verified: &yes},
		{id: uuid.New().String(), name: "Jasmine Decor Rentals", verified: nil},
	}

	for _, p := range providers {
		_, err := db.ExecContext(ctx,
			`INSERT INTO providers (id, name, is_verified, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.verified,
		)
		if err != nil {
			logger.Error().Err(err).Str("provider", p.name).Msg("failed to create provider")
		}
	}

	listings := []entities.Listing{
		{
			Type:        entities.ListingTypeService,
			Name:        "Sea View Wedding Hall",
			Description: strPtr("Waterfront reception hall for up to 400 guests with in-house lighting and terrace access."),
			Images:      []string{"https://cdn.mounasabet.example/venues/sea-view-1.jpg"},
			Rating:      floatPtr(4.7),
			ReviewCount: intPtr(182),
			BasePrice:   floatPtr(5200),
			Location:    strPtr("Gammarth, Tunis"),
			Category:    "venues",
			Tags:        []string{"wedding", "reception", "sea view", "terrace"},
			Provider:    entities.ListingProvider{ID: providers[0].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Old Medina Courtyard Venue",
			Description: strPtr("Traditional dar with open courtyard, ideal for engagement parties and henna nights."),
			Rating:      floatPtr(4.5),
			ReviewCount: intPtr(96),
			BasePrice:   floatPtr(2800),
			Location:    strPtr("Medina, Tunis"),
			Category:    "venues",
			Tags:        []string{"engagement", "henna", "traditional", "courtyard"},
			Provider:    entities.ListingProvider{ID: providers[0].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Hammamet Garden Pavilion",
			Description: strPtr("Garden pavilion with sea breeze seating for 150 guests, catering kitchen on site."),
			Rating:      floatPtr(4.2),
			ReviewCount: intPtr(64),
			BasePrice:   floatPtr(3400),
			Location:    strPtr("Hammamet"),
			Category:    "venues",
			Tags:        []string{"garden", "outdoor", "wedding", "birthday"},
			Provider:    entities.ListingProvider{ID: providers[0].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Full Wedding Buffet",
			Description: strPtr("Tunisian and international buffet for 100 to 500 guests, staff and tableware included."),
			Rating:      floatPtr(4.8),
			ReviewCount: intPtr(240),
			BasePrice:   floatPtr(38),
			Location:    strPtr("Tunis"),
			Category:    "catering",
			Tags:        []string{"buffet", "wedding", "couscous", "per person"},
			Provider:    entities.ListingProvider{ID: providers[1].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Pastry & Sweets Table",
			Description: strPtr("Baklawa, kaak warka and modern pastry assortments for receptions."),
			Rating:      floatPtr(4.6),
			ReviewCount: intPtr(131),
			BasePrice:   floatPtr(420),
			Location:    strPtr("Sousse"),
			Category:    "catering",
			Tags:        []string{"pastry", "sweets", "dessert", "reception"},
			Provider:    entities.ListingProvider{ID: providers[1].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Wedding Photography Package",
			Description: strPtr("Two photographers, full-day coverage, edited album delivered within three weeks."),
			Rating:      floatPtr(4.9),
			ReviewCount: intPtr(210),
			BasePrice:   floatPtr(1500),
			Location:    strPtr("Tunis"),
			Category:    "photography",
			Tags:        []string{"wedding", "album", "drone", "full day"},
			Provider:    entities.ListingProvider{ID: providers[2].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Birthday Shoot Mini Session",
			Description: strPtr("One hour studio or outdoor session with twenty retouched photos."),
			Rating:      floatPtr(4.3),
			ReviewCount: intPtr(58),
			BasePrice:   floatPtr(260),
			Location:    strPtr("Sfax"),
			Category:    "photography",
			Tags:        []string{"birthday", "studio", "kids"},
			Provider:    entities.ListingProvider{ID: providers[2].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Live Band & DJ Combo",
			Description: strPtr("Malouf ensemble for the ceremony, DJ set for the evening, sound system included."),
			Rating:      floatPtr(4.4),
			ReviewCount: intPtr(87),
			BasePrice:   floatPtr(1900),
			Location:    strPtr("Tunis"),
			Category:    "music",
			Tags:        []string{"dj", "live band", "malouf", "sound system"},
			Provider:    entities.ListingProvider{ID: providers[3].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeProduct,
			Name:        "Banquet Chair & Table Set",
			Description: strPtr("Rental set of 10 round tables and 100 dressed chairs, delivery included."),
			Rating:      floatPtr(4.0),
			ReviewCount: intPtr(42),
			BasePrice:   floatPtr(650),
			Location:    strPtr("Ariana"),
			Category:    "equipment",
			Tags:        []string{"rental", "tables", "chairs", "delivery"},
			Provider:    entities.ListingProvider{ID: providers[4].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeProduct,
			Name:        "Stage & Lighting Kit",
			Description: strPtr("Modular stage with LED uplighting and dance floor panels."),
			Rating:      floatPtr(4.1),
			ReviewCount: intPtr(33),
			BasePrice:   floatPtr(1200),
			Location:    strPtr("Tunis"),
			Category:    "equipment",
			Tags:        []string{"stage", "lighting", "dance floor"},
			Provider:    entities.ListingProvider{ID: providers[3].id},
			IsActive:    true,
		},
		{
			Type:        entities.ListingTypeService,
			Name:        "Floral Arch & Table Decor",
			Description: strPtr("Fresh jasmine and rose arrangements, arch, centerpieces and aisle decor."),
			Rating:      floatPtr(4.6),
			ReviewCount: intPtr(75),
			BasePrice:   floatPtr(880),
			Location:    strPtr("La Marsa, Tunis"),
			Category:    "decoration",
			Tags:        []string{"flowers", "jasmine", "centerpieces", "arch"},
			Provider:    entities.ListingProvider{ID: providers[4].id},
			IsActive:    true,
		},
		{
			// intentionally inactive so filtered reads have something to skip
			Type:        entities.ListingTypeService,
			Name:        "Retired Beach Venue",
			Description: strPtr("No longer operating."),
			Category:    "venues",
			Location:    strPtr("Djerba"),
			Provider:    entities.ListingProvider{ID: providers[0].id},
			IsActive:    false,
		},
	}

	created := 0
	for i := range listings {
		listing := &listings[i]
		listing.CreatedAt = time.Now().Add(-time.Duration(i) * time.Hour)

		if err := listingRepo.Create(ctx, listing); err != nil {
			logger.Error().Err(err).Str("listing", listing.Name).Msg("failed to create listing")
			continue
		}
		created++

		if searchRepo != nil && listing.IsActive {
			if err := searchRepo.Index(ctx, listing); err != nil {
				logger.Warn().Err(err).Str("listing", listing.Name).Msg("failed to index listing")
			}
		}
	}

	logger.Info().Int("listings", created).Int("providers", len(providers)).Msg("seeding completed")
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
