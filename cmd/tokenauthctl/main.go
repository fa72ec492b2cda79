// Command tokenauthctl is the admin utility for the authentication core:
// user creation, token generation, account lock/unlock, and global token
// revocation.
//
// Usage:
//
//	tokenauthctl create-user -email a@b.c [-first First] [-last Last] [-staff]
//	tokenauthctl issue -email a@b.c
//	tokenauthctl lock -email a@b.c
//	tokenauthctl unlock -email a@b.c
//	tokenauthctl revoke-all -email a@b.c
//
// Without TOKENAUTH_REDIS_ADDR the tool runs against an embedded
// miniredis, which makes issue usable in development shells; revocation
// state written that way does not outlive the process.
package main

import (
	"context"
	"fmt"
	"os"

	tokenauth "github.com/nvasko/tokenauth"
	"github.com/nvasko/tokenauth/userstore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "tokenauthctl: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err := cmd.run(context.Background(), os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "tokenauthctl: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"create-user": {"create a new user (optionally staff)", runCreateUser},
	"issue":       {"issue a token pair for a user", runIssue},
	"lock":        {"lock an account and revoke its access tokens", runLock},
	"unlock":      {"unlock an account", runUnlock},
	"revoke-all":  {"revoke all access tokens for a user", runRevokeAll},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tokenauthctl <command> [flags]")
	for _, name := range []string{"create-user", "issue", "lock", "unlock", "revoke-all"} {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", name, commands[name].summary)
	}
}

func lookupUser(ctx context.Context, users *userstore.Store, email string) (tokenauth.User, error) {
	user, found, err := users.UserByEmail(ctx, email)
	if err != nil {
		return tokenauth.User{}, err
	}
	if !found {
		return tokenauth.User{}, fmt.Errorf("no user with email %q", email)
	}
	return user, nil
}
