package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// MarshalDebug 将排版结果编码为缩进 JSON。
func MarshalDebug(res *Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试分组与折行。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := MarshalDebug(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
