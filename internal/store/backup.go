package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// Dump 导出全部键值；合法 JSON 原样保留
func Dump(kv KV) (map[string]json.RawMessage, error) {
	keys, err := kv.Keys("")
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		v, err := kv.Get(k)
		if err != nil {
			return nil, fmt.Errorf("dump %s: %w", k, err)
		}
		if json.Valid([]byte(v)) {
			out[k] = json.RawMessage(v)
			continue
		}
		quoted, _ := json.Marshal(v)
		out[k] = quoted
	}
	return out, nil
}

// WriteBackup 将全部键值写入 dir/backup-<时间戳>.json，返回文件路径
func WriteBackup(kv KV, dir string, now time.Time) (string, error) {
	data, err := Dump(kv)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	body = append(body, '\n')

	path := filepath.Join(dir, fmt.Sprintf("backup-%s.json", now.Format("20060102-150405")))
	if err := writeFileAtomic(path, body); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}
