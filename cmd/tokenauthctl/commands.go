package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	tokenauth "github.com/nvasko/tokenauth"
	"github.com/nvasko/tokenauth/userstore"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// env bundles the connections a subcommand needs. Redis falls back to an
// embedded miniredis when no address is configured.
type env struct {
	users   *userstore.Store
	tokens  *tokenauth.TokenService
	cleanup func()
}

func connect(ctx context.Context, needTokens bool) (*env, error) {
	databaseURL := os.Getenv("TOKENAUTH_DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("TOKENAUTH_DATABASE_URL is required")
	}

	users, err := userstore.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	e := &env{users: users, cleanup: users.Close}
	if !needTokens {
		return e, nil
	}

	cfg, err := tokenauth.LoadConfig()
	if err != nil {
		e.cleanup()
		return nil, err
	}

	addr := os.Getenv("TOKENAUTH_REDIS_ADDR")
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			e.cleanup()
			return nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		fmt.Fprintf(os.Stderr, "tokenauthctl: no TOKENAUTH_REDIS_ADDR, using embedded redis at %s\n", addr)
		prev := e.cleanup
		e.cleanup = func() { mr.Close(); prev() }
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	prev := e.cleanup
	e.cleanup = func() { _ = client.Close(); prev() }

	tokens, err := tokenauth.NewTokenService(cfg, client)
	if err != nil {
		e.cleanup()
		return nil, err
	}
	e.tokens = tokens

	return e, nil
}

func runCreateUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "email address (required)")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	staff := fs.Bool("staff", false, "grant staff privileges")
	_ = fs.Parse(args)

	if !emailPattern.MatchString(*email) {
		return fmt.Errorf("invalid email %q", *email)
	}

	e, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer e.cleanup()

	user, err := e.users.Create(ctx, *email, *first, *last, *staff)
	if err != nil {
		return err
	}

	fmt.Printf("created user %s (%s, staff=%v)\n", user.ID, user.Email, user.IsStaff)
	return nil
}

func runIssue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	email := fs.String("email", "", "email address (required)")
	_ = fs.Parse(args)

	e, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer e.cleanup()

	user, err := lookupUser(ctx, e.users, *email)
	if err != nil {
		return err
	}
	if !user.CanAuthenticate() {
		return fmt.Errorf("account %s is locked or inactive", user.Email)
	}

	pair, err := e.tokens.CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		return err
	}

	fmt.Printf("access:  %s\nrefresh: %s\n", pair.Access, pair.Refresh)
	return nil
}

// runLock flips the lock flag and bumps the token version, so existing
// access tokens die on their next verification instead of riding out
// their TTL.
func runLock(ctx context.Context, args []string) error {
	return setLocked(ctx, args, true)
}

func runUnlock(ctx context.Context, args []string) error {
	return setLocked(ctx, args, false)
}

func setLocked(ctx context.Context, args []string, locked bool) error {
	name := "unlock"
	if locked {
		name = "lock"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	email := fs.String("email", "", "email address (required)")
	_ = fs.Parse(args)

	e, err := connect(ctx, locked)
	if err != nil {
		return err
	}
	defer e.cleanup()

	user, err := lookupUser(ctx, e.users, *email)
	if err != nil {
		return err
	}

	if err := e.users.SetLocked(ctx, user.ID, locked); err != nil {
		return err
	}

	if locked {
		if err := e.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
			return fmt.Errorf("account locked but token revocation failed: %w", err)
		}
		fmt.Printf("locked %s and revoked outstanding access tokens\n", user.Email)
		return nil
	}

	fmt.Printf("unlocked %s\n", user.Email)
	return nil
}

func runRevokeAll(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("revoke-all", flag.ExitOnError)
	email := fs.String("email", "", "email address (required)")
	_ = fs.Parse(args)

	e, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer e.cleanup()

	user, err := lookupUser(ctx, e.users, *email)
	if err != nil {
		return err
	}

	if err := e.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
		return err
	}

	fmt.Printf("revoked all access tokens for %s\n", user.Email)
	return nil
}
