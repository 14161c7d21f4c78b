package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir")

	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	err := CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	err = CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	for _, key := range []string{"ANDROID_DATA", "ANDROID_ROOT", "ANDROID_STORAGE"} {
		t.Setenv(key, "")
	}

	downloadsDir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Failed to get downloads directory: %v", err)
	}

	if filepath.Base(downloadsDir) != "Downloads" {
		t.Errorf("Expected directory to end with 'Downloads', got: %s", downloadsDir)
	}
}

func TestGetHomeDownloadsDir_Android(t *testing.T) {
	t.Setenv("ANDROID_DATA", "/data")

	downloadsDir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Failed to get downloads directory: %v", err)
	}
	if downloadsDir != "/sdcard/Download" {
		t.Errorf("Expected Android downloads dir, got: %s", downloadsDir)
	}
}

func TestOpenFolder_EmptyPath(t *testing.T) {
	if err := OpenFolder(context.Background(), ""); err == nil {
		t.Error("Expected error for empty folder path")
	}
}
