package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	userID := flag.String("user", "", "user id for the sub claim (random when empty)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET environment variable must be set")
		fmt.Fprintln(os.Stderr, "Usage: JWT_SECRET=secret [JWT_ISSUER=issuer] go run scripts/generate-jwt.go -user <id>")
		os.Exit(1)
	}

	sub := *userID
	if sub == "" {
		sub = uuid.NewString()
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(*ttl).Unix(),
	}
	// The server only checks iss when JWT_ISSUER is configured.
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		claims["iss"] = issuer
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
