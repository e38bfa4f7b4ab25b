// Command manage administers group membership and refresh tokens.
//
//	manage grant -user alice [-group Managers]
//	manage revoke -user alice [-group Managers]
//	manage list [-group Managers]
//	manage revoke-tokens -user alice
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/config"
	"github.com/yukikurage/task-graphql-api/internal/constants"
	"github.com/yukikurage/task-graphql-api/internal/database"
	"github.com/yukikurage/task-graphql-api/internal/observability"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/services"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	log := observability.NewLogger(cfg.AppEnv, "warn")

	db, err := database.Connect(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(context.Background(), db, cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "manage:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, db *gorm.DB, cfg *config.Config, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	username := fs.String("user", "", "username")
	group := fs.String("group", constants.ManagersGroup, "group name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	groups := services.NewGroupService(repository.NewGroupRepository(db), userRepo)

	switch cmd {
	case "grant":
		if *username == "" {
			return fmt.Errorf("-user is required")
		}
		if err := groups.Grant(ctx, *username, *group); err != nil {
			return err
		}
		fmt.Fprintf(out, "added %s to %s\n", *username, *group)

	case "revoke":
		if *username == "" {
			return fmt.Errorf("-user is required")
		}
		if err := groups.Revoke(ctx, *username, *group); err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %s from %s\n", *username, *group)

	case "list":
		members, err := groups.ListMembers(ctx, *group)
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Fprintf(out, "%d\t%s\t%s\n", m.UserID, m.User.Username, m.JoinedAt.Format("2006-01-02"))
		}

	case "revoke-tokens":
		if *username == "" {
			return fmt.Errorf("-user is required")
		}
		user, err := userRepo.FindByUsername(ctx, *username)
		if err != nil {
			return fmt.Errorf("find user %q: %w", *username, err)
		}
		jwtManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
		if err != nil {
			return err
		}
		authService := services.NewAuthService(userRepo, repository.NewRefreshTokenRepository(db), jwtManager)
		if err := authService.RevokeAll(ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked refresh tokens of %s\n", *username)

	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: manage <grant|revoke|list|revoke-tokens> [-user name] [-group name]")
}
