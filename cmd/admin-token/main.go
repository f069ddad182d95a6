package main

import (
	"flag"
	"log"
	"time"

	"grocery-storefront/pkg/config"
	"grocery-storefront/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	token := flag.String("token", "", "admin token to hash (random when empty)")
	email := flag.String("email", "", "also mint a development JWT for this email")
	role := flag.String("role", jwt.RoleAdmin, "role claim of the development JWT")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime of the development JWT")
	flag.Parse()

	// 1. Admin token hash
	if *token == "" {
		*token = uuid.NewString()
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(*token), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash token: %v", err)
	}
	log.Printf("x-admin-token:    %s", *token)
	log.Printf("ADMIN_TOKEN_HASH=%s", string(hashed))

	if *email == "" {
		return
	}

	// 2. Development JWT signed with JWT_SECRET
	cfg, err := config.Load("admin-token")
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	signed, err := jwt.GenerateToken([]byte(cfg.Auth.JWTSecret), uuid.NewString(), *email, *role, *ttl)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}
	log.Printf("✅ Bearer token for %s (%s, valid %s):", *email, *role, *ttl)
	log.Printf("%s", signed)
}
