// Command keygen provisions the asset encryption key file.
package main

import (
	"flag"
	"os"

	"finance_tracker/internal/config"
	"finance_tracker/internal/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	out := flag.String("out", cfg.EncryptionKeyFile, "path of the key file to create")
	flag.Parse()

	if *out == "" {
		logrus.Fatal("no output path: pass -out or set ENCRYPTION_KEY_FILE")
	}
	if _, err := os.Stat(*out); err == nil {
		logrus.Fatalf("%s already exists; refusing to replace a provisioned key", *out)
	}
	key, err := utils.GenerateKey()
	if err != nil {
		logrus.Fatalf("generate key: %v", err)
	}
	if err := utils.WriteKeyFile(*out, key); err != nil {
		logrus.Fatalf("write key: %v", err)
	}
	logrus.WithField("path", *out).Info("Encryption key written")
}
