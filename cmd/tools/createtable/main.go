package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

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

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	stmts := []string{`
	CREATE TABLE IF NOT EXISTS clients (
	  id CHAR(36) NOT NULL,
	  first_name VARCHAR(100) NOT NULL,
	  last_name VARCHAR(100) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  phone VARCHAR(32) NULL,
	  active TINYINT(1) NOT NULL DEFAULT 1,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_clients_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
	CREATE TABLE IF NOT EXISTS services (
	  id CHAR(36) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  description TEXT NULL,
	  price_cents INT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'DZD',
	  active TINYINT(1) NOT NULL DEFAULT 1,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
	CREATE TABLE IF NOT EXISTS payments (
	  id CHAR(36) NOT NULL,
	  service_id CHAR(36) NOT NULL,
	  client_id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  provider_ref VARCHAR(128) NULL,
	  checkout_url VARCHAR(512) NULL,
	  method VARCHAR(32) NOT NULL,
	  type VARCHAR(16) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  amount_cents INT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'DZD',
	  error_message VARCHAR(255) NULL,
	  completed_at DATETIME(3) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payments_service_id (service_id),
	  KEY ix_payments_client_id (client_id),
	  KEY ix_payments_status (status),
	  CONSTRAINT fk_payments_service FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE RESTRICT,
	  CONSTRAINT fk_payments_client FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
	CREATE TABLE IF NOT EXISTS payment_transactions (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  amount_cents INT NOT NULL,
	  method VARCHAR(32) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  provider_ref VARCHAR(128) NULL,
	  provider_status VARCHAR(64) NULL,
	  payload_json JSON NULL,
	  transaction_date DATETIME(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_transactions_payment_id (payment_id),
	  KEY ix_payment_transactions_date (transaction_date),
	  UNIQUE KEY ux_payment_transactions_provider_ref (provider_ref),
	  CONSTRAINT fk_payment_transactions_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
	CREATE TABLE IF NOT EXISTS provider_events (
	  id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  event_id VARCHAR(128) NOT NULL,
	  event_type VARCHAR(64) NOT NULL,
	  payload_json JSON NOT NULL,
	  received_at DATETIME(3) NOT NULL,
	  processed_at DATETIME(3) NULL,
	  process_error VARCHAR(255) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_provider_events_provider_event (provider, event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`}

	for _, stmt := range stmts {
		if _, err := sqlDB.Exec(stmt); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
	}

	log.Println("tables created")
}
