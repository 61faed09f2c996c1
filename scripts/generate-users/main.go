package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-loginform/pkg/auth/localauth"
)

// Writes a users file for local mode and the development API from
// email=password pairs given as arguments.
func main() {
	var (
		outputPath = flag.String("output", "users.yaml", "output path for the users file")
		cost       = flag.Int("cost", 10, "bcrypt cost")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: generate-users [-output users.yaml] email=password ...")
		os.Exit(2)
	}

	users := make([]localauth.User, 0, flag.NArg())
	for i, arg := range flag.Args() {
		email, password, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(email) == "" || password == "" {
			fmt.Fprintf(os.Stderr, "invalid pair %q, expected email=password\n", arg)
			os.Exit(2)
		}
		hash, err := localauth.HashPassword(password, *cost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password for %s: %v\n", email, err)
			os.Exit(1)
		}
		users = append(users, localauth.User{
			ID:           fmt.Sprintf("user-%d", i+1),
			Email:        strings.TrimSpace(email),
			PasswordHash: hash,
		})
	}

	data, err := localauth.Encode(users...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode users: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, data, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d users to %s\n", len(users), *outputPath)
}
