package cmd

import (
	"context"
	"fmt"

	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/database/repo/tags"
	"github.com/anoixa/photo-bed/internal/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cleanCmd 清理不再被任何照片引用的标签
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove tags that no photo references",
	Long: `Remove tags that no photo references.
Tags are kept when their last photo is deleted so that names stay stable;
run this occasionally to prune them.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		container := app.NewContainer(config.Get())
		if err := container.InitDatabase(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer container.Close()

		repo := tags.NewRepository(container.GetDatabaseProvider().DB())
		if err := runClean(context.Background(), repo, dryRun); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
}

func runClean(ctx context.Context, repo *tags.Repository, dryRun bool) error {
	if dryRun {
		orphans, err := repo.ListOrphans(ctx)
		if err != nil {
			return fmt.Errorf("failed to list orphan tags: %w", err)
		}
		for _, tag := range orphans {
			log.Infof("[DRY-RUN] Would delete orphan tag: ID=%d, Name=%s", tag.ID, tag.Name)
		}
		log.Infof("%d orphan tags found", len(orphans))
		return nil
	}

	n, err := repo.DeleteOrphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete orphan tags: %w", err)
	}
	log.Infof("Deleted %d orphan tags", n)
	return nil
}
