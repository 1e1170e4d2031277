// SPDX-License-Identifier: MPL-2.0

// Package bundle assembles the final offline-install archive from a
// populated workspace.
package bundle

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
)

const installerName = "install"

// Assembler finalizes a workspace into <product>-bundle.zip.
type Assembler struct {
	// Product names the bundle directory and archive.
	Product string
	// InstallerScript is the bootstrap/installer script copied into the
	// bundle root. It ships alongside the bundler, not inside the workspace.
	InstallerScript string
}

// DefaultInstallerScript resolves the installer shipped next to the bundler
// binary.
func DefaultInstallerScript() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate bundler executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), installerName), nil
}

// Finalize copies the installer script into workspaceRoot, renames the root
// to <product>-bundle in its parent directory (replacing any prior directory
// of that name), and compresses the whole tree into <product>-bundle.zip in
// the same parent (replacing any prior archive). It returns the absolute
// path of the new archive.
func (a *Assembler) Finalize(workspaceRoot string) (string, error) {
	if err := copyFile(a.InstallerScript, filepath.Join(workspaceRoot, installerName), 0755); err != nil {
		return "", fmt.Errorf("failed to copy installer script: %w", err)
	}

	parent := filepath.Dir(workspaceRoot)
	bundleDir := filepath.Join(parent, a.Product+"-bundle")
	if err := os.RemoveAll(bundleDir); err != nil {
		return "", fmt.Errorf("failed to remove previous bundle directory: %w", err)
	}
	if err := os.Rename(workspaceRoot, bundleDir); err != nil {
		return "", fmt.Errorf("failed to rename workspace: %w", err)
	}

	archivePath := filepath.Join(parent, a.Product+"-bundle.zip")
	if err := writeArchive(bundleDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to write bundle archive: %w", err)
	}

	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return absPath, nil
}

// writeArchive walks dir recursively and writes every contained file into a
// deflate-compressed ZIP, entries rooted at the bundle directory name.
// Creating the archive truncates any pre-existing file at archivePath.
func writeArchive(dir, archivePath string) error {
	zipFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)
	base := filepath.Base(dir)

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		// Forward slashes for ZIP compatibility.
		zipPath := filepath.ToSlash(filepath.Join(base, relPath))

		w, err := zw.Create(zipPath)
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", zipPath, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", zipPath, err)
		}
		return nil
	})
	if err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return zipFile.Close()
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}
