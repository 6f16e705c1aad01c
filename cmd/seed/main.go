package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"workshopbuddy/internal/auth"
	"workshopbuddy/internal/config"
	"workshopbuddy/internal/db"
	apperrors "workshopbuddy/internal/errors"
	"workshopbuddy/internal/logger"
	"workshopbuddy/internal/repository"
	"workshopbuddy/internal/service"
)

type stockSeed struct {
	name     string
	qty, min int
	unit     string
}

var (
	demoMaterials = []stockSeed{
		{name: "Pine board", qty: 12, min: 4, unit: "board"},
		{name: "Wood screws", qty: 150, min: 50, unit: "pcs"},
		{name: "Wood glue", qty: 1, min: 2, unit: "bottle"},
		{name: "Oak dowel", qty: 20, min: 10, unit: "pcs"},
	}
	demoConsumables = []stockSeed{
		{name: "Sandpaper 120 grit", qty: 8, min: 10, unit: "sheet"},
		{name: "Wood finish", qty: 2, min: 1, unit: "can"},
	}
	// Item name -> material name -> required quantity.
	demoItems = []struct {
		name  string
		notes string
		links map[string]int
	}{
		{name: "Bookshelf", notes: "three shelves, 80cm wide", links: map[string]int{"Pine board": 6, "Wood screws": 32, "Wood glue": 1}},
		{name: "Stool", notes: "", links: map[string]int{"Pine board": 2, "Oak dowel": 4, "Wood glue": 1}},
	}
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	logr := logger.New(cfg.Logging)

	gormDB, err := db.Open(cfg.Database, logr)
	if err != nil {
		logr.Fatal().Err(err).Msg("connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		logr.Fatal().Err(err).Msg("run migrations")
	}

	username := envOr("SEED_USERNAME", "demo")
	password := envOr("SEED_PASSWORD", "demo1234")

	materialRepo := repository.NewMaterialRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, auth.NewTokenStore(nil), nil)
	materials := service.NewStockService(materialRepo)
	consumables := service.NewStockService(repository.NewConsumableRepository(gormDB))
	items := service.NewItemService(repository.NewItemRepository(gormDB), materialRepo)

	user, err := authService.Register(ctx, username, password)
	if errors.Is(err, apperrors.ErrUsernameTaken) {
		logr.Info().Str("username", username).Msg("demo user already exists, nothing to seed")
		return
	}
	if err != nil {
		logr.Fatal().Err(err).Msg("create demo user")
	}

	materialIDs := make(map[string]uint, len(demoMaterials))
	for _, s := range demoMaterials {
		created, err := materials.Create(ctx, user.UserID, s.input())
		if err != nil {
			logr.Fatal().Err(err).Str("material", s.name).Msg("create material")
		}
		materialIDs[s.name] = created.ID
	}
	for _, s := range demoConsumables {
		if _, err := consumables.Create(ctx, user.UserID, s.input()); err != nil {
			logr.Fatal().Err(err).Str("consumable", s.name).Msg("create consumable")
		}
	}

	for _, it := range demoItems {
		in := service.CreateItemInput{Name: it.name}
		if it.notes != "" {
			notes := it.notes
			in.Notes = &notes
		}
		item, err := items.Create(ctx, user.UserID, in)
		if err != nil {
			logr.Fatal().Err(err).Str("item", it.name).Msg("create item")
		}
		for materialName, required := range it.links {
			if _, err := items.LinkMaterial(ctx, user.UserID, item.ID, materialIDs[materialName], required); err != nil {
				logr.Fatal().Err(err).Str("item", it.name).Str("material", materialName).Msg("link material")
			}
		}
	}

	logr.Info().
		Str("username", username).
		Int("materials", len(demoMaterials)).
		Int("consumables", len(demoConsumables)).
		Int("items", len(demoItems)).
		Msg("seed completed")
}

func (s stockSeed) input() service.CreateStockInput {
	unit := s.unit
	return service.CreateStockInput{Name: s.name, Quantity: s.qty, MinimumQuantity: s.min, Unit: &unit}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
