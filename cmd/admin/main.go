// Package main provides admin management utilities for Fundboard.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"fundboard/internal/cache"
	"fundboard/internal/config"
	"fundboard/internal/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	successColor = color.New(color.FgHiGreen, color.Bold)
	warnColor    = color.New(color.FgHiYellow)
	errorColor   = color.New(color.FgHiRed, color.Bold)
	labelColor   = color.New(color.Bold)
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Fundboard administration",
	Long:          `Administrative tasks against the configured Fundboard database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errorColor.Fprintf(os.Stderr, "🚨 %v\n", err)
		os.Exit(1)
	}
}

// openDB loads configuration, connects and creates the schema if needed.
// Redis is attached too so post mutations drop the cached copies the API
// serves. The returned func releases both.
func openDB() (*gorm.DB, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	cache.InitRedis(cfg.RedisURL)
	return db, func() { closeDB(db) }, nil
}

func closeDB(db *gorm.DB) {
	if c := cache.GetClient(); c != nil {
		_ = c.Close()
		cache.SetClient(nil)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid ID %q", arg)
	}
	return uint(id), nil
}
