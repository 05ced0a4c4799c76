// Package main provides an operator tool that migrates legacy flat-layout
// files into the hierarchical storage layout.
//
// Files written before the hierarchical layout landed live directly under
// {userId}/{fileId}{ext}; this tool rewrites each into
// {userId}/sources/{fileId}{ext}. Migration never runs automatically; it is
// an explicit maintenance operation.
//
// Usage:
//
//	UPLOAD_PATH=~/StageUp/uploads go run ./cmd/migrate
//	go run ./cmd/migrate -upload-path /srv/stageup/uploads -user usr-V1StGXR8_Z5jdHi6BmyT
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/stageupapp/stageup-server/internal/di"
	"github.com/stageupapp/stageup-server/internal/id"
	"github.com/stageupapp/stageup-server/internal/logger"
	"github.com/stageupapp/stageup-server/internal/media/storage"
)

var onlyUser = flag.String("user", "", "Migrate a single user directory instead of the whole root")

func main() {
	injector := di.NewContainer()

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	store, err := do.Invoke[*storage.Local](injector)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}

	log.Info("Starting legacy layout migration", "root", store.Root())

	var report *storage.MigrationReport
	if *onlyUser != "" {
		report = store.MigrateUserFiles(id.UserID(*onlyUser))
	} else {
		report, err = store.MigrateAllUsers()
		if err != nil {
			log.Error("Migration sweep failed", "error", err)
			os.Exit(1)
		}
	}

	for oldPath, newPath := range report.Migrated {
		fmt.Printf("migrated  %s -> %s\n", oldPath, newPath)
	}
	for _, failure := range report.Failures {
		fmt.Printf("FAILED    %s: %v\n", failure.RelativePath, failure.Err)
	}

	fmt.Printf("\n%d migrated, %d failed\n", len(report.Migrated), len(report.Failures))
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
