package main

import (
	"fmt"
	"os"
	"time"

	"github.com/miraclemessages/mm-case-api/api"
)

// Quick utility to sign a volunteer token for local testing
// Usage: JWT_SECRET=... go run scripts/volunteer_token.go <volunteer uid>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/volunteer_token.go <volunteer uid>")
		fmt.Println("Example: JWT_SECRET=dev go run scripts/volunteer_token.go volunteer-1")
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := api.Auth{Secret: []byte(secret)}.NewToken(os.Args[1], 24*time.Hour)
	if err != nil {
		fmt.Printf("Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
