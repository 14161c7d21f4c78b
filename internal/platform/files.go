package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
	OSAndroid = "android"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// File manager names
var (
	LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}
)

// Android intent used to show the shared Downloads folder
const androidDownloadsURI = "content://com.android.externalstorage.documents/root/primary/Download"

// OpenFolder opens a directory in the system file manager.
// The directory is created first so the file manager never opens an error page.
func OpenFolder(ctx context.Context, dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("folder path is empty")
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := CreateDirectoryIfNotExists(absPath); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", absPath, err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.CommandContext(ctx, OpenCommand, absPath).Run()
	case OSWindows:
		// explorer.exe exits with status 1 even on success
		_ = exec.CommandContext(ctx, ExplorerCommand, absPath).Run()
		return nil
	case OSLinux:
		return openFolderLinux(ctx, absPath)
	case OSAndroid:
		return exec.CommandContext(ctx, "am", "start", "-a", "android.intent.action.VIEW", "-d", androidDownloadsURI).Run()
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// openFolderLinux tries xdg-open, then known file managers
func openFolderLinux(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, XDGOpenCommand, dir)
	if err := cmd.Run(); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.CommandContext(ctx, fm, dir).Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	isAndroid := runtime.GOOS == OSAndroid ||
		os.Getenv("ANDROID_DATA") != "" ||
		os.Getenv("ANDROID_ROOT") != "" ||
		os.Getenv("ANDROID_STORAGE") != ""

	if isAndroid {
		return "/sdcard/Download", nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, "Downloads"), nil
}
