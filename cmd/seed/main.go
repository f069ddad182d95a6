package main

import (
	"context"
	"log"

	"grocery-storefront/internal/model"
	"grocery-storefront/internal/repository"
	"grocery-storefront/internal/service"
	"grocery-storefront/pkg/config"
	"grocery-storefront/pkg/database"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	Name     string
	Master   string
	Price    string
	Shared   int
	Brand    string
	PackSize string
}

var (
	masters = []model.MasterCategory{
		{Slug: "rice-grains", Name: "Rice & Grains"},
		{Slug: "lentils-pulses", Name: "Lentils & Pulses"},
		{Slug: "spices-masalas", Name: "Spices & Masalas"},
		{Slug: "flours-atta", Name: "Flours & Atta"},
	}

	products = []seedProduct{
		{"Basmati Rice 5kg", "rice-grains", "32.0", 50, "India Gate", "5kg"},
		{"Toor Dal 2kg", "lentils-pulses", "18.5", 40, "Tata Sampann", "2kg"},
		{"Garam Masala 200g", "spices-masalas", "6.5", 80, "MDH", "200g"},
		{"Aashirvaad Atta 10kg", "flours-atta", "24.0", 30, "Aashirvaad", "10kg"},
	}

	stores = []service.UpsertStoreRequest{
		{Slug: "green-mart", Name: "Green Mart", Phone: "+61400000001"},
		{Slug: "sydney-spice", Name: "Sydney Spice", Phone: "+61400000002", ThemeColor: "#B3261E"},
	}

	// Store-scoped stock per product; nil leaves the store on the shared pool.
	storeStock = map[string]map[string]*int{
		"green-mart": {
			"Basmati Rice 5kg":     lo.ToPtr(10),
			"Toor Dal 2kg":         lo.ToPtr(25),
			"Garam Masala 200g":    lo.ToPtr(40),
			"Aashirvaad Atta 10kg": lo.ToPtr(15),
		},
		"sydney-spice": {
			"Basmati Rice 5kg":     nil,
			"Toor Dal 2kg":         lo.ToPtr(12),
			"Garam Masala 200g":    lo.ToPtr(20),
			"Aashirvaad Atta 10kg": nil,
		},
	}
)

func main() {
	ctx := context.Background()

	// 1. Load config and connect
	cfg, err := config.Load("seed")
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	db, err := database.ConnectDB(cfg.DB)
	if err != nil {
		log.Fatalf("❌ database: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}

	categoryRepo := repository.NewCategoryRepo(db)
	productRepo := repository.NewProductRepo(db)
	storeService := service.NewStoreService(repository.NewStoreRepo(db), categoryRepo, productRepo, db)

	// 2. Master taxonomy
	for i := range masters {
		if err := categoryRepo.CreateMaster(ctx, &masters[i]); err != nil {
			log.Fatalf("❌ master category %s: %v", masters[i].Slug, err)
		}
	}
	allMasters, err := categoryRepo.ListMaster(ctx)
	if err != nil {
		log.Fatalf("❌ list master categories: %v", err)
	}
	masterBySlug := lo.KeyBy(allMasters, func(m model.MasterCategory) string { return m.Slug })

	// 3. Global catalog
	productByName := make(map[string]model.CatalogProduct)
	for _, sp := range products {
		p := model.CatalogProduct{
			Name:             sp.Name,
			BasePrice:        decimal.RequireFromString(sp.Price),
			Stock:            sp.Shared,
			IsActive:         true,
			IsGlobal:         true,
			MasterCategoryID: lo.ToPtr(masterBySlug[sp.Master].ID),
			Brand:            sp.Brand,
			PackSize:         sp.PackSize,
		}
		p.CreatedBy = "seed"
		p.UpdatedBy = "seed"
		if err := db.Where("name = ? AND is_global = ?", sp.Name, true).FirstOrCreate(&p).Error; err != nil {
			log.Fatalf("❌ product %s: %v", sp.Name, err)
		}
		productByName[sp.Name] = p
	}
	log.Printf("✅ %d global products ready", len(productByName))

	// 4. Stores, onboarded with categories and overrides
	stockRepo := repository.NewStockRepo()
	for i := range stores {
		store, result, err := storeService.Upsert(ctx, &stores[i], "seed")
		if err != nil {
			log.Fatalf("❌ store %s: %v", stores[i].Slug, err)
		}
		log.Printf("✅ Store %s (created=%t, categories=%d, overrides=%d)",
			store.Slug, result.Created, result.CategoriesSeeded, result.OverridesBootstrapped)

		// 5. Stock per store
		err = db.Transaction(func(tx *gorm.DB) error {
			for name, stock := range storeStock[store.Slug] {
				if err := stockRepo.SetStore(tx, store.ID, productByName[name].ID, stock, "seed"); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Fatalf("❌ stock for %s: %v", store.Slug, err)
		}
	}

	log.Println("✅ Seed complete")
}
