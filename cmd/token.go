package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/app"
	"github.com/anoixa/photo-bed/internal/auth"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// tokenCmd 为已有用户签发访问令牌，角色取自数据库
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for an existing user",
	Long: `Issue an access token for an existing user. The role embedded in the token
is read from the database; the API re-checks it on every request.

Examples:
  photo-bed token --username admin
  photo-bed token --user-id 3 --expires 2h`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetUint("user-id")
		username, _ := cmd.Flags().GetString("username")
		expires, _ := cmd.Flags().GetDuration("expires")

		token, expiresAt, err := issueToken(cmd.Context(), userID, username, expires)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		log.WithField("expires_at", expiresAt.Format(time.RFC3339)).Info("Token issued")
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Uint("user-id", 0, "User ID to issue the token for")
	tokenCmd.Flags().String("username", "", "Username to issue the token for")
	tokenCmd.Flags().Duration("expires", 0, "Token lifetime (defaults to jwt_expires_in)")
	tokenCmd.MarkFlagsOneRequired("user-id", "username")
	tokenCmd.MarkFlagsMutuallyExclusive("user-id", "username")
}

func issueToken(ctx context.Context, userID uint, username string, expires time.Duration) (string, time.Time, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get()
	if expires <= 0 {
		expires = cfg.JWTExpiresIn
	}
	jwtService, err := auth.NewJWTService(cfg.JWTSecret, expires)
	if err != nil {
		return "", time.Time{}, err
	}

	container := app.NewContainer(cfg)
	if err := container.InitDatabase(); err != nil {
		return "", time.Time{}, err
	}
	defer container.Close()

	repo := container.GetAccountsRepo()
	var user *models.User
	if username != "" {
		user, err = repo.GetUserByUsername(ctx, username)
	} else {
		user, err = repo.GetUserByID(ctx, userID)
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if user.IsBanned {
		return "", time.Time{}, fmt.Errorf("user %s is banned", user.Username)
	}

	return jwtService.GenerateAccessToken(user.Username, user.ID, user.Role)
}
