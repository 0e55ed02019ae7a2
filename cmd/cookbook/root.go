package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kerhoff/cookbook/internal/config"
	"github.com/Kerhoff/cookbook/internal/repository/memory"
	"github.com/Kerhoff/cookbook/internal/repository/postgres"
	"github.com/Kerhoff/cookbook/internal/service"
)

// Execute runs the root command until it finishes or a signal arrives
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:          "cookbook",
		Short:        "Recipe and shopping list server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), hashPasswordCmd())
	return root.ExecuteContext(ctx)
}

// openStore returns the postgres repositories when a database is configured
// and an in-memory store otherwise. The returned database is nil for the
// in-memory store.
func openStore(cfg *config.Config, l *logrus.Logger) (service.Repositories, *config.Database, error) {
	if cfg.DatabaseURL == "" {
		l.Warn("DATABASE_URL is not set, data is kept in memory only")
		store := memory.New()
		return service.Repositories{
			Groups:  store.Groups(),
			Users:   store.Users(),
			Labels:  store.Labels(),
			Lists:   store.ShoppingLists(),
			Items:   store.ShoppingListItems(),
			Recipes: store.Recipes(),
			Foods:   store.Foods(),
		}, nil, nil
	}

	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		return service.Repositories{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return service.Repositories{}, nil, err
	}

	return service.Repositories{
		Groups:  postgres.NewGroupRepository(db.DB),
		Users:   postgres.NewUserRepository(db.DB),
		Labels:  postgres.NewLabelRepository(db.DB),
		Lists:   postgres.NewShoppingListRepository(db.DB),
		Items:   postgres.NewShoppingListItemRepository(db.DB),
		Recipes: postgres.NewRecipeRepository(db.DB),
		Foods:   postgres.NewFoodRepository(db.DB),
	}, db, nil
}
