// Package storetest 提供可注入故障的键值存储，用于测试存储失败时的回退行为。
package storetest

import (
	"errors"
	"sync"

	"cylindertrack/internal/store"
)

// ErrInjected 注入的存储错误
var ErrInjected = errors.New("injected storage failure")

// Faulty 包装一个 KV，可按需让读或写失败
type Faulty struct {
	store.KV

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	failKeys bool
	setCalls int
}

// New 包装内存存储
func New() *Faulty {
	return &Faulty{KV: store.NewMemoryStore()}
}

// FailGet 设置读取是否失败
func (f *Faulty) FailGet(v bool) { f.mu.Lock(); f.failGet = v; f.mu.Unlock() }

// FailSet 设置写入是否失败
func (f *Faulty) FailSet(v bool) { f.mu.Lock(); f.failSet = v; f.mu.Unlock() }

// FailKeys 设置列键是否失败
func (f *Faulty) FailKeys(v bool) { f.mu.Lock(); f.failKeys = v; f.mu.Unlock() }

// SetCalls 成功或失败的写入调用次数
func (f *Faulty) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *Faulty) Get(key string) (string, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return f.KV.Get(key)
}

func (f *Faulty) Set(key, value string) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KV.Set(key, value)
}

func (f *Faulty) Keys(prefix string) ([]string, error) {
	f.mu.Lock()
	fail := f.failKeys
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.KV.Keys(prefix)
}
