package cmd

import (
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	userdm "github.com/opsdesk/ops-management/internal/core/datamodel/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"audit_logs", "notifications", "approval_requests", "leaves", "totp_devices", "refresh_tokens", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		fixed := []userdm.User{
			{Email: "admin@opsdesk.local", FirstName: "Asha", LastName: "Rao", Role: "SYSTEM_ADMIN", TwoFactorMode: "NONE"},
			{Email: "hr@opsdesk.local", FirstName: "Hari", LastName: "Menon", Role: "HR_MANAGER", TwoFactorMode: "EMAIL"},
			{Email: "manager@opsdesk.local", FirstName: "Mira", LastName: "Shah", Role: "ENGINEERING_MANAGER", TwoFactorMode: "EMAIL"},
			{Email: "engineer@opsdesk.local", FirstName: "Ravi", LastName: "Kumar", Role: "SOFTWARE_ENGINEER", TwoFactorMode: "NONE"},
		}

		gofakeit.Seed(42)
		for i := 0; i < 6; i++ {
			fixed = append(fixed, userdm.User{
				Email:       gofakeit.Email(),
				FirstName:   gofakeit.FirstName(),
				LastName:    gofakeit.LastName(),
				Role:        "SOFTWARE_ENGINEER",
				PhoneNumber: gofakeit.Phone(),
			})
		}

		for _, u := range fixed {
			var count int64
			if err := db.Model(&userdm.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
				log.Fatalf("failed to check user %s: %v", u.Email, err)
			}
			if count > 0 {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				continue
			}

			u.PasswordHash = string(hash)
			u.IsActive = true
			if u.TwoFactorMode == "" {
				u.TwoFactorMode = "EMAIL"
			}
			if err := db.Create(&u).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Email, u.Role)
		}

		fmt.Println("Seeding complete. All seeded accounts use password:", password)
	},
}
