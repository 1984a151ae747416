package main

import (
	"context"
	"flag"
	"os"
	"time"

	"safaristay/internal/config"
	"safaristay/internal/database"
	"safaristay/internal/domain"
	"safaristay/internal/pkg/logger"
	"safaristay/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds the first admin account and a starter catalog. Existing rows are left
// untouched, so the command can be re-run safely.
func main() {
	adminEmail := flag.String("admin-email", envOr("SEED_ADMIN_EMAIL", "admin@safaristay.local"), "admin account email")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin account password")
	withCatalog := flag.Bool("catalog", true, "seed properties, rooms, packages and amenities")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithField("error", err.Error()).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if *adminPassword == "" {
		log.Fatal("admin password required (-admin-password or SEED_ADMIN_PASSWORD)")
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("db connect failed")
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.WithField("error", err.Error()).Fatal("auto migrate failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("hash admin password")
	}
	admin := domain.User{
		FullName:     "Administrator",
		Email:        domain.NormalizeEmail(*adminEmail),
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Status:       domain.UserActive,
	}
	if err := insertIgnore(ctx, db, &admin); err != nil {
		log.WithField("error", err.Error()).Fatal("seed admin")
	}
	log.WithField("email", admin.Email).Info("admin ready")

	if !*withCatalog {
		return
	}
	for name, rows := range map[string]any{
		"properties": properties(),
		"rooms":      rooms(),
		"packages":   packages(),
		"amenities":  amenities(),
	} {
		if err := insertIgnore(ctx, db, rows); err != nil {
			log.WithField("error", err.Error()).WithField("table", name).Fatal("seed catalog")
		}
	}
	log.Info("catalog seeded")
}

func insertIgnore(ctx context.Context, db *gorm.DB, rows any) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func properties() []domain.Property {
	return []domain.Property{
		{ID: "mara-serena-camp", Name: "Mara Serena Camp", Location: "Maasai Mara", Type: "camp", BasePricePerNight: 320, Currency: "USD", MaxGuests: 24},
		{ID: "amboseli-lodge", Name: "Amboseli Kilima Lodge", Location: "Amboseli", Type: "lodge", BasePricePerNight: 280, Currency: "USD", MaxGuests: 40},
		{ID: "diani-beach-villa", Name: "Diani Beach Villa", Location: "Diani Beach", Type: "villa", BasePricePerNight: 450, Currency: "USD", MaxGuests: 8},
	}
}

func rooms() []domain.Room {
	return []domain.Room{
		{ID: "mara-tent", PropertyID: "mara-serena-camp", Name: "Luxury Tent", RoomType: "tent", PricePerNight: 180, MaxGuests: 2, Quantity: 10, Available: true},
		{ID: "mara-family-tent", PropertyID: "mara-serena-camp", Name: "Family Tent", RoomType: "tent", PricePerNight: 150, MaxGuests: 4, Quantity: 4, Available: true},
		{ID: "amboseli-standard", PropertyID: "amboseli-lodge", Name: "Standard Room", RoomType: "standard", PricePerNight: 140, MaxGuests: 2, Quantity: 16, Available: true},
		{ID: "amboseli-suite", PropertyID: "amboseli-lodge", Name: "Kilimanjaro Suite", RoomType: "suite", PricePerNight: 260, MaxGuests: 3, Quantity: 4, Available: true},
		{ID: "diani-master", PropertyID: "diani-beach-villa", Name: "Ocean Master Suite", RoomType: "suite", PricePerNight: 220, MaxGuests: 2, Quantity: 2, Available: true},
	}
}

func packages() []domain.Package {
	mara := "mara-serena-camp"
	amboseli := "amboseli-lodge"
	return []domain.Package{
		{ID: "mara-3-day", Name: "Maasai Mara Migration Safari", Duration: "3 days / 2 nights", Location: "Maasai Mara", PropertyID: &mara, Category: "safari", Price: 1150, MaxGuests: 6},
		{ID: "amboseli-2-day", Name: "Amboseli Elephant Trail", Duration: "2 days / 1 night", Location: "Amboseli", PropertyID: &amboseli, Category: "safari", Price: 640, MaxGuests: 6},
		{ID: "coast-5-day", Name: "Swahili Coast Escape", Duration: "5 days / 4 nights", Location: "Diani Beach", Category: "beach", Price: 1480, MaxGuests: 4},
	}
}

func amenities() []domain.Amenity {
	return []domain.Amenity{
		{ID: "balloon-safari", Name: "Hot Air Balloon Safari", Price: 450, Category: "activity", Active: true},
		{ID: "bush-dinner", Name: "Bush Dinner", Price: 95, Category: "dining", Active: true},
		{ID: "airport-shuttle", Name: "Airport Shuttle", Price: 60, Category: "transport", Active: true},
		{ID: "spa-session", Name: "Spa Session", Price: 80, Category: "wellness", Active: true},
	}
}
