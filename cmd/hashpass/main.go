// Command hashpass печатает bcrypt-хэш для ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Dosada05/venue-system/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(2)
	}

	hash, err := utils.HashPassword(os.Args[1])
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(hash)
}
