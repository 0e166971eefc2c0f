package utils

import (
	"fmt"
	"os"
)

// CheckOutputDir 确保输出目录存在且可写，不存在时创建
func CheckOutputDir(path string) error {
	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("could not create output directory %s: %w", path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not access output directory %s: %w", path, err)
	}
	if !fileInfo.IsDir() {
		return fmt.Errorf("the specified output path is not a directory: %s", path)
	}

	tmpFile, err := os.CreateTemp(path, "aselect-")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", path, err)
	}
	tmpFile.Close()
	os.Remove(tmpFile.Name())

	return nil
}
