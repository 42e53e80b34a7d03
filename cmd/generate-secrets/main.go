package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smarttransit/seat-reservation/internal/utils"
	"github.com/smarttransit/seat-reservation/pkg/jwt"
)

// Prints a fresh JWT_SECRET, or with -user signs an access token using the
// configured secret (handy for calling the admin API from scripts).
func main() {
	user := flag.String("user", "", "issue an access token for this user id instead of generating a secret")
	roles := flag.String("roles", "admin", "comma-separated roles for the issued token")
	ttl := flag.Duration("ttl", time.Hour, "lifetime of the issued token")
	flag.Parse()

	if *user != "" {
		issueToken(*user, *roles, *ttl)
		return
	}

	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for SmartTransit")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateJWTSecret()
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("Add this to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Println()
	fmt.Println("Keep this secret safe and never commit it to version control.")
	fmt.Println("===========================================")
}

func issueToken(user, roles string, ttl time.Duration) {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	var roleList []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := jwt.NewService(secret, ttl).GenerateAccessToken(user, roleList)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
