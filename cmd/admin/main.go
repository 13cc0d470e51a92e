// Package main provides account management utilities for the journal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"journal/internal/cache"
	"journal/internal/config"
	"journal/internal/database"
	"journal/internal/models"
	"journal/internal/repository"
	"journal/internal/session"
)

const usage = `Usage:
  admin promote <user_id>      - Promote user to admin
  admin demote <user_id>       - Demote admin to member
  admin list-admins            - List all admins
  admin delete-user <user_id>  - Delete a user with their sessions, comments and posts
  admin purge-sessions         - Delete expired sessions from the database`

var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, closeCache := openCache(cfg.RedisURL)
	users := repository.NewUserRepository(db, store)
	err = run(context.Background(), os.Args[1:], users, session.NewDBStore(db), os.Stdout)
	closeCache()
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(usage)
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

// openCache connects to the server's Redis, when one is configured, so that
// delete-user evicts the cached posts it removes.
func openCache(addr string) (*cache.Store, func()) {
	client := cache.InitRedis(addr)
	if client == nil {
		return cache.NewStore(nil), func() {}
	}
	return cache.NewStore(client), func() { _ = client.Close() }
}

func run(ctx context.Context, args []string, users repository.UserRepository, sessions *session.DBStore, out io.Writer) error {
	switch args[0] {
	case "promote", "demote", "delete-user":
		if len(args) < 2 {
			return errUsage
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		switch args[0] {
		case "promote":
			return setRole(ctx, users, uint(id), models.RoleAdmin, out)
		case "demote":
			return setRole(ctx, users, uint(id), models.RoleMember, out)
		default:
			return deleteUser(ctx, users, uint(id), out)
		}

	case "list-admins":
		return listAdmins(ctx, users, out)

	case "purge-sessions":
		n, err := sessions.DeleteExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to purge sessions: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Removed %d expired sessions\n", n)
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func setRole(ctx context.Context, users repository.UserRepository, id uint, role models.Role, out io.Writer) error {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return fmt.Errorf("user with ID %d not found", id)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.Role == role {
		_, _ = fmt.Fprintf(out, "User %s (ID: %d) is already %s\n", user.Name, user.ID, role)
		return nil
	}

	if err := users.SetRole(ctx, id, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	_, _ = fmt.Fprintf(out, "User %s (ID: %d) is now %s\n", user.Name, user.ID, role)
	return nil
}

func deleteUser(ctx context.Context, users repository.UserRepository, id uint, out io.Writer) error {
	if err := users.Delete(ctx, id); err != nil {
		if models.IsNotFound(err) {
			return fmt.Errorf("user with ID %d not found", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Deleted user %d\n", id)
	return nil
}

func listAdmins(ctx context.Context, users repository.UserRepository, out io.Writer) error {
	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to fetch admins: %w", err)
	}

	if len(admins) == 0 {
		_, _ = fmt.Fprintln(out, "No admins found")
		return nil
	}

	_, _ = fmt.Fprintln(out, "Current admins:")
	for _, admin := range admins {
		_, _ = fmt.Fprintf(out, "ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	return nil
}
