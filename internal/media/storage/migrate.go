package storage

import (
	"os"
	"path/filepath"
	"strings"

	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
	"github.com/stageupapp/stageup-server/internal/id"
	"github.com/stageupapp/stageup-server/internal/media/paths"
)

// Legacy-layout migration. Files written before the hierarchical layout
// landed live directly under {userId}/{fileId}{ext}. Migration is an
// explicit, operator-invoked maintenance operation; nothing triggers it
// automatically. Per-file failures are reported, never fatal.

// MigrationFailure records one file that could not be migrated.
type MigrationFailure struct {
	RelativePath string
	Err          error
}

// MigrationReport summarizes a migration sweep.
type MigrationReport struct {
	// Migrated maps each old relative path to its new source-shape path.
	Migrated map[string]string
	Failures []MigrationFailure
}

// MigrateLegacyFile moves one flat-layout file into the source shape,
// reusing the legacy file id as the source image id so existing database
// rows keep their key. Returns the new relative path.
func (s *Local) MigrateLegacyFile(userID id.UserID, fileID id.FileID, ext string) (string, error) {
	oldRel := paths.LegacyRelativePath(userID, fileID, ext)
	oldAbs, err := paths.ResolveWithinRoot(s.root, oldRel)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeAccessDenied, "resolve legacy path")
	}

	if _, err := os.Stat(oldAbs); err != nil {
		if os.IsNotExist(err) {
			return "", domainerrors.NotFoundf("legacy file %s not found", oldRel)
		}
		return "", domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "stat legacy file")
	}

	newRel := paths.SourceImageRelativePath(userID, id.SourceImageID(fileID), ext)
	newAbs, err := paths.ResolveWithinRoot(s.root, newRel)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeAccessDenied, "resolve source path")
	}

	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return "", classifyWriteError(err, "create sources directory")
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return "", classifyWriteError(err, "move legacy file")
	}

	s.logger.Info("migrated legacy file",
		"user_id", userID,
		"old_path", oldRel,
		"new_path", newRel,
	)
	return newRel, nil
}

// MigrateUserFiles sweeps one user directory for flat-layout files and
// migrates each into the source shape.
func (s *Local) MigrateUserFiles(userID id.UserID) *MigrationReport {
	report := &MigrationReport{Migrated: map[string]string{}}

	userRoot, err := paths.ResolveWithinRoot(s.root, paths.UserRootRelativePath(userID))
	if err != nil {
		return report
	}

	entries, err := os.ReadDir(userRoot)
	if err != nil {
		return report
	}

	for _, entry := range entries {
		if entry.IsDir() {
			// sources/ and generations/ are already hierarchical.
			continue
		}

		oldRel := userID.String() + "/" + entry.Name()
		parts, ok := paths.ParseLegacyPath(oldRel)
		if !ok || !paths.ValidExtension(parts.Extension) {
			continue
		}

		newRel, err := s.MigrateLegacyFile(parts.UserID, parts.FileID, parts.Extension)
		if err != nil {
			report.Failures = append(report.Failures, MigrationFailure{RelativePath: oldRel, Err: err})
			continue
		}
		report.Migrated[oldRel] = newRel
	}

	return report
}

// MigrateAllUsers sweeps every user directory under the storage root.
func (s *Local) MigrateAllUsers() (*MigrationReport, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "read storage root")
	}

	total := &MigrationReport{Migrated: map[string]string{}}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		report := s.MigrateUserFiles(id.UserID(entry.Name()))
		for oldRel, newRel := range report.Migrated {
			total.Migrated[oldRel] = newRel
		}
		total.Failures = append(total.Failures, report.Failures...)
	}

	s.logger.Info("legacy migration sweep complete",
		"migrated", len(total.Migrated),
		"failed", len(total.Failures),
	)
	return total, nil
}
