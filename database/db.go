package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/internal/cache"
)

// Package-level singleton so every caller shares one pool.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		newCache, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache unavailable, reads fall through to postgres: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: newCache}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createHostTable(db)
	if err != nil {
		return nil, err
	}
	err = createGuestTable(db)
	if err != nil {
		return nil, err
	}
	err = createListingTable(db)
	if err != nil {
		return nil, err
	}
	err = createReservationTable(db)
	if err != nil {
		return nil, err
	}
	err = createBalanceTable(db)
	if err != nil {
		return nil, err
	}
	err = createEscrowTable(db)
	if err != nil {
		return nil, err
	}
	err = createTransferTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func createHostTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hosts (
			id SERIAL PRIMARY KEY,
			address TEXT NOT NULL UNIQUE,
			author TEXT NOT NULL UNIQUE,
			name TEXT,
			email TEXT,
			image_url TEXT,
			hashed_password TEXT,
			listing_count BIGINT DEFAULT 0,
			created_at TIMESTAMP,
			meta_data JSONB
		)
	`)
	return err
}

func createGuestTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS guests (
			id SERIAL PRIMARY KEY,
			address TEXT NOT NULL UNIQUE,
			author TEXT NOT NULL UNIQUE,
			name TEXT,
			email TEXT,
			image_url TEXT,
			hashed_password TEXT,
			phone_number TEXT,
			reservation_count BIGINT DEFAULT 0,
			created_at TIMESTAMP,
			meta_data JSONB
		)
	`)
	return err
}

func createListingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id SERIAL PRIMARY KEY,
			listing_id BIGINT NOT NULL,
			address TEXT NOT NULL UNIQUE,
			host_id TEXT NOT NULL REFERENCES hosts(address),
			title TEXT,
			description TEXT,
			image_url TEXT,
			category TEXT,
			room_count INT,
			bathroom_count INT,
			guest_capacity INT,
			country_code TEXT,
			total_bookings BIGINT DEFAULT 0,
			is_active BOOLEAN DEFAULT TRUE,
			price_per_night BIGINT,
			created_at TIMESTAMP,
			meta_data JSONB
		)
	`)
	return err
}

func createReservationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reservations (
			id SERIAL PRIMARY KEY,
			reservation_id BIGINT NOT NULL,
			address TEXT NOT NULL UNIQUE,
			guest_id TEXT NOT NULL REFERENCES guests(address),
			host_id TEXT NOT NULL REFERENCES hosts(address),
			listing_id TEXT NOT NULL REFERENCES listings(address),
			start_date BIGINT,
			end_date BIGINT,
			guest_count INT,
			total_nights INT,
			price_per_night BIGINT,
			total_price BIGINT,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			created_at BIGINT,
			meta_data JSONB
		)
	`)
	return err
}

func createBalanceTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS balances (
			id SERIAL PRIMARY KEY,
			balance_id TEXT NOT NULL UNIQUE,
			indicator TEXT,
			balance BIGINT DEFAULT 0,
			credit_balance BIGINT DEFAULT 0,
			debit_balance BIGINT DEFAULT 0,
			currency TEXT NOT NULL,
			version BIGINT DEFAULT 0,
			created_at TIMESTAMP,
			meta_data JSONB,
			UNIQUE (indicator, currency)
		)
	`)
	return err
}

func createEscrowTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS escrows (
			id SERIAL PRIMARY KEY,
			escrow_id BIGINT NOT NULL,
			address TEXT NOT NULL UNIQUE,
			reservation_id TEXT NOT NULL REFERENCES reservations(address),
			guest_id TEXT NOT NULL,
			host_id TEXT NOT NULL,
			amount BIGINT NOT NULL,
			platform_fee BIGINT NOT NULL,
			status TEXT NOT NULL,
			created_at BIGINT,
			release_date BIGINT,
			meta_data JSONB
		)
	`)
	return err
}

func createTransferTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transfers (
			id SERIAL PRIMARY KEY,
			transfer_id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			destination TEXT NOT NULL,
			amount BIGINT NOT NULL,
			fee BIGINT DEFAULT 0,
			currency TEXT,
			escrow_address TEXT,
			reason TEXT,
			hash TEXT,
			created_at TIMESTAMP,
			meta_data JSONB
		)
	`)
	return err
}
