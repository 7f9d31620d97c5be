package store

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("key not found")

// KV 设备本地键值存储：字符串键 -> JSON 文本
type KV interface {
	// Get 读取键值；键不存在时返回 ErrNotFound
	Get(key string) (string, error)
	// Set 写入（覆盖）键值
	Set(key, value string) error
	// Keys 列出指定前缀的键（升序）
	Keys(prefix string) ([]string, error)
	Close() error
}

func filterKeys(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
