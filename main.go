package main

import (
	"errors"
	"io/fs"

	"github.com/IndieWebClubBlr/website/cmd"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	_ "golang.org/x/crypto/x509roots/fallback" // We need this to make TLS work in scratch containers
)

func main() {
	// Settings in .env become BLOGROLL_* defaults; the file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Could not read .env file")
	}
	cmd.Execute()
}
