package main

import (
	"os"

	"lifeos/internal/logger"
)

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	code := 0
	if err := rootCmd.Execute(); err != nil {
		code = 1
	}
	logger.Sync()
	os.Exit(code)
}
