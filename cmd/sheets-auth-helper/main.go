package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"feedback-insights/internal/feedback"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: sheets-auth-helper <credentials.json> [token-file]")
	}
	credentialsFile := os.Args[1]
	tokenFile := "data/google_token.json"
	if len(os.Args) > 2 {
		tokenFile = os.Args[2]
	}

	credentialsData, err := os.ReadFile(credentialsFile)
	if err != nil {
		log.Fatalf("Failed to read credentials file: %v", err)
	}
	creds, err := feedback.ParseOAuthCredentials(credentialsData)
	if err != nil {
		log.Fatalf("Failed to parse credentials: %v", err)
	}
	config := feedback.OAuthConfig(creds)

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Printf("Google Sheets OAuth2 Authorization Helper\n")
	fmt.Printf("=========================================\n")
	fmt.Printf("1. Open this URL in your browser:\n")
	fmt.Printf("   %s\n\n", authURL)
	fmt.Printf("2. Authorize read-only access to your spreadsheets\n")
	fmt.Printf("3. Copy the authorization code and enter it below\n\n")
	fmt.Printf("Enter the authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}

	token, err := config.Exchange(context.Background(), authCode)
	if err != nil {
		log.Fatalf("Failed to exchange code for token: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(tokenFile), 0o755); err != nil {
		log.Fatalf("Failed to create token dir: %v", err)
	}
	if err := feedback.SaveToken(tokenFile, token); err != nil {
		log.Fatalf("Failed to save token: %v", err)
	}

	fmt.Printf("\nToken saved to %s\n", tokenFile)
	fmt.Printf("=========================================\n")
	fmt.Printf("Add these to your .env file:\n\n")
	fmt.Printf("GOOGLE_CREDENTIALS_JSON='%s'\n", string(credentialsData))
	fmt.Printf("GOOGLE_TOKEN_FILE=%s\n", tokenFile)
	if token.RefreshToken == "" {
		fmt.Printf("\nWarning: no refresh token returned; the token will stop working at %v\n", token.Expiry)
	}
}
