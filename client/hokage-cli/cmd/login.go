package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [email] [password]",
	Short: "Log in and print a JWT for subsequent commands",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		login(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func login(email, password string) {
	payload := map[string]string{"email": email, "password": password}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error creating JSON payload: %v", err)
	}

	resp, err := http.Post(serverURL+"/api/v1/auth/login", "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Fatalf("Error logging in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Login failed, status code: %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Printf("Login successful!\n")
	fmt.Printf("export HOKAGE_TOKEN=%s\n", result["token"])
}
