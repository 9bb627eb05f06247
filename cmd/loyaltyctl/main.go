// Command loyaltyctl scores a hand-entered customer profile from the
// terminal: loyalty score, offer, churn risk and AI prediction.
package main

import (
	"os"

	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
