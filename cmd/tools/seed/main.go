package main

import (
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/clients"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/services"
)

// Seeds a handful of catalog services and demo clients for local work.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	now := time.Now()
	desc := func(s string) *string { return &s }

	svcs := []services.Service{
		{ID: uuid.NewString(), Name: "Initial consultation", Description: desc("One-hour case review with an attorney."), PriceCents: 500000, Currency: "DZD", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Contract drafting", Description: desc("Drafting and review of a commercial contract."), PriceCents: 1500000, Currency: "DZD", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Company formation", Description: desc("SARL registration, statutes and filings."), PriceCents: 4500000, Currency: "DZD", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Litigation retainer", Description: desc("Representation retainer, payable in installments."), PriceCents: 12000000, Currency: "DZD", Active: true, CreatedAt: now, UpdatedAt: now},
	}

	phone := "+213550000000"
	cls := []clients.Client{
		{ID: uuid.NewString(), FirstName: "Amina", LastName: "Benali", Email: "amina.benali@example.test", Phone: &phone, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), FirstName: "Karim", LastName: "Haddad", Email: "karim.haddad@example.test", Active: true, CreatedAt: now, UpdatedAt: now},
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&svcs).Error; err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cls).Error; err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	log.Printf("seeded %d services, %d clients", len(svcs), len(cls))
}
