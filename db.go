package main

import (
	"log"
	"os"
	"strings"

	"odolog/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Trip{}); err != nil {
			log.Printf("migration warning (trips): %v", err)
		}
		if err := db.AutoMigrate(&models.FareRoute{}); err != nil {
			log.Printf("migration warning (fare_routes): %v", err)
		}
		if err := db.AutoMigrate(&models.Photo{}); err != nil {
			log.Printf("migration warning (photos): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
	}

	// Ensure photos -> users FK exists (in case the table predates UserID)
	if shouldMigrate {
		if err := ensurePhotoUserFK(); err != nil {
			log.Printf("warning: ensuring photos->users FK failed: %v", err)
		}
	}
	seedDB()
}

// ensurePhotoUserFK adds the user_id column and FK constraint if they are missing.
func ensurePhotoUserFK() error {
	// 1. Ensure user_id column exists
	if err := db.Exec(`ALTER TABLE photos ADD COLUMN IF NOT EXISTS user_id BIGINT`).Error; err != nil {
		return err
	}
	// 2. Create index (idempotent)
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_photos_user_id ON photos(user_id)`).Error; err != nil {
		return err
	}
	// 3. Check if FK already present
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'photos' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%user_id%' AND pg_get_constraintdef(ct.oid) ILIKE '%users%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N == 0 {
		if err := db.Exec(`ALTER TABLE photos
			ADD CONSTRAINT fk_photos_users
			FOREIGN KEY (user_id) REFERENCES users(id)
			ON UPDATE CASCADE ON DELETE CASCADE`).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedRoles() {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		// find administrator role id
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		// Seed admin user
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}

	seedFareRoutes()
	// Ensure upload directory exists
	ensureUploadBase()
}

// seedFareRoutes fills the fare lookup table with the base route tariff.
// Existing rows are left untouched so operators can adjust fares in place.
func seedFareRoutes() {
	routes := []models.FareRoute{
		{Origin: "depot", Destination: "terminal", Fare: 25000},
		{Origin: "depot", Destination: "airport", Fare: 90000},
		{Origin: "terminal", Destination: "airport", Fare: 75000},
		{Origin: "terminal", Destination: "harbor", Fare: 40000},
		{Origin: "depot", Destination: "harbor", Fare: 55000},
	}
	for _, r := range routes {
		var cnt int64
		db.Model(&models.FareRoute{}).Where("origin = ? AND destination = ?", r.Origin, r.Destination).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
