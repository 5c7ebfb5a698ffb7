package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/okarpov/jobforge/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a store job posting from a structured input file",
	Run: func(cmd *cobra.Command, _ []string) {
		runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("input", "i", "", "path to a JSON file with the store job input")
	generateCmd.Flags().Bool("formatted", false, "print only the formatted post instead of the full JSON")

	generateCmd.MarkFlagRequired("input")
}

func runGenerate(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	inputPath, _ := cmd.Flags().GetString("input")
	formatted, _ := cmd.Flags().GetBool("formatted")

	input, err := readRecord(inputPath)
	if err != nil {
		zlog.Fatal("reading input", zap.Error(err))
	}

	svc, err := buildServices(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("initializing AI services", zap.Error(err))
	}

	result := svc.postings.GenerateStorePosting(ctx, input)

	if formatted {
		fmt.Println(result.FormattedPost)
		return
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		zlog.Fatal("encoding result", zap.Error(err))
	}

	fmt.Println(string(pretty))
}
