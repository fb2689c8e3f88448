// Steward - Schema-driven admin backend
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/steward/internal/api"
	"github.com/aethra/steward/internal/auth"
	"github.com/aethra/steward/internal/config"
	"github.com/aethra/steward/internal/database"
	"github.com/aethra/steward/internal/models"
	"github.com/aethra/steward/internal/store"
	"github.com/aethra/steward/schema"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	fmt.Printf("Steward %s - Starting...\n", Version)

	cfg := config.Load()
	db := connectDB(cfg)
	log.Println("Database connected")

	reg := schema.Catalog()
	slogger := slog.Default()

	if err := database.RunMigrations(db, reg, slogger); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessExpiry)*time.Hour,
		time.Duration(cfg.Auth.RefreshExpiry)*time.Hour)
	engine := store.NewEngine(db, reg, slogger)

	handler := api.NewHandler(engine, slogger)
	authHandler := api.NewAuthHandler(db, jwtService)
	router := api.SetupRouter(handler, authHandler, jwtService, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func connectDB(cfg *config.Config) *gorm.DB {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var db *gorm.DB
	var err error
	switch cfg.Database.Driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.Database.DSN()), gormCfg)
	default:
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN()), gormCfg)
	}
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

// CLI
func runCLI() {
	cmd := os.Args[1]
	switch cmd {
	case "serve":
		startServer()
	case "migrate":
		cfg := config.Load()
		db := connectDB(cfg)
		if err := database.RunMigrations(db, schema.Catalog(), slog.Default()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migrations complete")
	case "user":
		runUserCmd()
	case "entities":
		for _, entity := range schema.Catalog().All() {
			fmt.Printf("%s - %s (%s)\n", entity.Code, entity.Name, entity.TableName())
		}
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: steward <command>
Commands:
  serve                                  Start server
  migrate                                Run migrations
  entities                               List registered entities
  user list                              List users
  user create --email= --password=       Create admin user`)
}

func runUserCmd() {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	cfg := config.Load()
	db := connectDB(cfg)
	switch os.Args[2] {
	case "list":
		var users []models.User
		db.Find(&users)
		for _, u := range users {
			fmt.Printf("%s <%s> [%s]\n", u.FirstName+" "+u.LastName, u.Email, u.Role)
		}
	case "create":
		email := getFlag("--email")
		password := getFlag("--password")
		if email == "" || password == "" {
			printUsage()
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatalf("Failed: %v", err)
		}
		if err := db.Create(&models.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    getFlag("--first"),
			LastName:     getFlag("--last"),
			Role:         models.RoleAdmin,
			IsActive:     true,
		}).Error; err != nil {
			log.Fatalf("Failed: %v", err)
		}
		fmt.Printf("User created: %s\n", email)
	case "delete":
		email := getFlag("--email")
		if email == "" {
			printUsage()
			return
		}
		db.Where("email = ?", email).Delete(&models.User{})
		fmt.Printf("User deleted: %s\n", email)
	}
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
			return arg[len(prefix):]
		}
	}
	return ""
}
