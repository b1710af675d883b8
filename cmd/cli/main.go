package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

var bcryptGenerate = bcrypt.GenerateFromPassword

func main() {
	rootCmd := &cobra.Command{
		Use:   "minibank-cli",
		Short: "Minibank CLI tool",
		Long:  `A command line interface for interacting with the Minibank API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Minibank API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MINIBANK_TOKEN"), "Bearer token (defaults to MINIBANK_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		authCmd(),
		accountCmd(),
		depositCmd(),
		transferCmd(),
		ledgerCmd(),
		hashPasswordCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication operations",
	}

	var email, name, password string

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
				"email":    email,
				"name":     name,
				"password": password,
			})
		},
	}
	registerCmd.Flags().StringVar(&email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&name, "name", "", "Display name")
	registerCmd.Flags().StringVar(&password, "password", "", "Password")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
				"email":    email,
				"password": password,
			})
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "Email address")
	loginCmd.Flags().StringVar(&password, "password", "", "Password")

	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated user",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/auth/me", nil)
		},
	}

	cmd.AddCommand(registerCmd, loginCmd, meCmd)
	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var name string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/", map[string]string{"name": name})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your accounts",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/", nil)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <number>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	}

	transactionsCmd := &cobra.Command{
		Use:   "transactions <number>",
		Short: "List an account's transaction log",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+args[0]+"/transactions", nil)
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile <number>",
		Short: "Recompute an account's balance from its log",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+args[0]+"/reconciliation", nil)
		},
	}

	cmd.AddCommand(createCmd, listCmd, getCmd, transactionsCmd, reconcileCmd)
	return cmd
}

func depositCmd() *cobra.Command {
	var amount, description string

	cmd := &cobra.Command{
		Use:   "deposit <number>",
		Short: "Deposit into an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/"+args[0]+"/deposits", map[string]string{
				"amount":      amount,
				"description": description,
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to deposit")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")

	return cmd
}

func transferCmd() *cobra.Command {
	var from, to, amount, description string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer between accounts",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/transfers", map[string]string{
				"from_account_number": from,
				"to_account_number":   to,
				"amount":              amount,
				"description":         description,
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source account number")
	cmd.Flags().StringVar(&to, "to", "", "Destination account number")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/ledger/consistency", nil)
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

// doRequest sends a request, attaching the bearer token and a fresh
// idempotency key for mutating calls, and prints the JSON response.
func doRequest(method, path string, payload map[string]string) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(respBody))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(respBody, &result); err != nil {
		fmt.Printf("%s\n", string(respBody))
		return
	}

	printJSON(result)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
