package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tourly/internal/availability"
	"tourly/internal/registrations"
	"tourly/internal/shared/config"
	"tourly/internal/shared/database"
	"tourly/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Tourly Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"payments",
		"bookings",
		"registrations",
		"custom_tours",
		"availabilities",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	// Seed users first (no dependencies)
	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	// Seed availabilities for the provider
	if err := s.SeedAvailabilities(userIDs["provider"]); err != nil {
		return fmt.Errorf("failed to seed availabilities: %w", err)
	}

	// Seed custom tours
	if err := s.SeedCustomTours(userIDs["provider"]); err != nil {
		return fmt.Errorf("failed to seed custom tours: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedUsers creates one user per role
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Hash password for all users (using "qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@tourly.io", users.RoleAdmin},
		{"provider", "Paula", "Guide", "provider@tourly.io", users.RoleProvider},
		{"tourist1", "Toni", "Traveler", "tourist1@tourly.io", users.RoleTourist},
		{"tourist2", "Terry", "Traveler", "tourist2@tourly.io", users.RoleTourist},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedAvailabilities creates two weeks of bookable dates for two tours
func (s *Seeder) SeedAvailabilities(providerID uuid.UUID) error {
	fmt.Println("  📅 Seeding availabilities...")

	earlyBird := 10.0
	groupMin := 5
	groupDiscount := 15.0

	toursData := []struct {
		name     string
		capacity int
		price    float64
		slots    []availability.TimeSlot
		rules    []availability.PricingRule
	}{
		{
			name:     "Old Town Walking Tour",
			capacity: 20,
			price:    35,
			slots: []availability.TimeSlot{
				{StartTime: "09:00", EndTime: "12:00", MaxCapacity: 10, IsAvailable: true},
				{StartTime: "14:00", EndTime: "17:00", MaxCapacity: 10, IsAvailable: true},
			},
			rules: []availability.PricingRule{
				{
					Type:               availability.RuleGroupDiscount,
					DiscountPercentage: &groupDiscount,
					MinParticipants:    &groupMin,
					Description:        "15% off for groups of 5 or more",
				},
			},
		},
		{
			name:     "Coastal Kayak Adventure",
			capacity: 8,
			price:    95,
			slots: []availability.TimeSlot{
				{StartTime: "08:00", EndTime: "13:00", MaxCapacity: 8, PricePerPerson: 110, IsAvailable: true},
			},
			rules: []availability.PricingRule{
				{
					Type:               availability.RuleEarlyBird,
					DiscountPercentage: &earlyBird,
					Description:        "Early bird 10% off",
				},
			},
		},
	}

	start := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)

	for _, tourData := range toursData {
		tourID := uuid.New()
		created := 0

		for day := 0; day < 14; day++ {
			date := start.AddDate(0, 0, day)

			a := availability.Availability{
				TourID:              tourID,
				ProviderID:          providerID,
				Date:                date,
				DayOfWeek:           date.Weekday().String(),
				IsAvailable:         true,
				Type:                availability.TypeRegular,
				TotalCapacity:       tourData.capacity,
				AvailableSpots:      tourData.capacity,
				TimeSlots:           tourData.slots,
				BasePricePerPerson:  tourData.price,
				Currency:            "USD",
				PricingRules:        tourData.rules,
				MinimumParticipants: 1,
				TourName:            tourData.name,
				CreatedBy:           &providerID,
			}

			if err := s.db.PostgreSQL.Create(&a).Error; err != nil {
				return fmt.Errorf("failed to create availability for %s: %w", tourData.name, err)
			}
			created++
		}

		fmt.Printf("    ✅ Created %d dates for tour: %s\n", created, tourData.name)
	}

	return nil
}

// SeedCustomTours creates a few provider-curated tours open for registration
func (s *Seeder) SeedCustomTours(providerID uuid.UUID) error {
	fmt.Println("  🗺️ Seeding custom tours...")

	start := time.Now().Truncate(24 * time.Hour).AddDate(0, 1, 0)

	toursData := []struct {
		title       string
		description string
		days        int
		maxTourists int
		price       float64
	}{
		{"Highlands Photography Week", "Seven days chasing light across the highlands", 7, 6, 1200},
		{"Street Food Crawl", "An evening of hidden stalls and family kitchens", 1, 10, 65},
		{"Volcano Sunrise Trek", "Overnight hike timed for sunrise at the crater rim", 2, 8, 240},
	}

	for _, tourData := range toursData {
		tour := registrations.CustomTour{
			ProviderID:        providerID,
			Title:             tourData.title,
			Description:       tourData.description,
			StartDate:         start,
			EndDate:           start.AddDate(0, 0, tourData.days),
			MaxTourists:       tourData.maxTourists,
			RemainingTourists: tourData.maxTourists,
			PricePerPerson:    tourData.price,
			Currency:          "USD",
			IsActive:          true,
		}

		if err := s.db.PostgreSQL.Create(&tour).Error; err != nil {
			return fmt.Errorf("failed to create custom tour %s: %w", tourData.title, err)
		}

		fmt.Printf("    ✅ Created custom tour: %s (%d spots)\n", tour.Title, tour.MaxTourists)
	}

	return nil
}
