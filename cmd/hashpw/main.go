// Command hashpw prints a password hash suitable for seeding an admin row.
// The password is read from stdin so it stays out of shell history.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/security"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func main() {
	_ = godotenv.Load()

	scheme := flag.String("scheme", string(security.SchemeArgon2id), "hash scheme: argon2id|bcrypt")
	cost := flag.Int("cost", 0, "bcrypt cost (0 selects the library default)")
	flag.Parse()

	var params config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &params); err != nil {
		fmt.Fprintf(os.Stderr, "parsing password config: %v\n", err)
		os.Exit(1)
	}

	password, err := readPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading password: %v\n", err)
		os.Exit(1)
	}

	var hash string
	switch security.Scheme(*scheme) {
	case security.SchemeArgon2id:
		hash, err = security.HashArgon2id(password, params)
	case security.SchemeBcrypt:
		hash, err = security.HashBcrypt(password, *cost)
	default:
		fmt.Fprintln(os.Stderr, "unknown -scheme value:", *scheme)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashing password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
