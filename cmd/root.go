package cmd

import (
	"os"

	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "photo-bed",
	Short: "A photo hosting service with tags and derived images",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		cfg := config.Get()
		utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	},
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (eg: /etc/photo-bed/.env)")
	err := viper.BindPFlag("config_file_path", rootCmd.PersistentFlags().Lookup("config"))
	if err != nil {
		return
	}
}
