package main

import (
	"log"
	"os"

	"github.com/cuetable/backend/internal/auth"
)

// Generates the bcrypt hash for ADMIN_KEY_HASH from the ADMIN_KEY env var.
func main() {
	plainKey := os.Getenv("ADMIN_KEY")
	if plainKey == "" {
		log.Fatal("ADMIN_KEY env var is required")
	}

	hashed, err := auth.HashAdminKey(plainKey)
	if err != nil {
		log.Fatalf("Failed to hash admin key: %v", err)
	}

	log.Println("Set this in your environment:")
	log.Printf("  ADMIN_KEY_HASH=%s", hashed)
}
