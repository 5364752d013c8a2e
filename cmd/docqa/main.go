package main

import (
	"os"

	"github.com/higress-group/docqa-bot/common/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
