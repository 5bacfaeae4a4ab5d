// Package httputil 提供抓取结果的文件缓存。
package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired 表示缓存项存在但已超过 TTL。
var ErrExpired = errors.New("cache entry expired")

// Cache 以 JSON 文件保存任意可序列化的值，文件名为键的 SHA-256。
// TTL 以文件修改时间计算，0 表示永不过期。单个实例不是并发安全的。
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewCache 在 dir 下创建缓存，dir 为空时使用 ~/.cache/factzy。
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "factzy")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) Dir() string        { return c.dir }
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get 读取 key 对应的值：命中返回 (true, nil)，不存在返回 (false, nil)，过期返回 ErrExpired。
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.keyPath(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("解析缓存 %s 失败: %w", key, err)
	}
	return true, nil
}

// Set 写入并刷新 TTL。
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), data, 0o644)
}

// Fetch 命中时直接解码到 v，否则调用 fetch 并写回缓存。
// 缓存读写错误不影响 fetch 的结果。
func Fetch[T any](c *Cache, key string, fetch func() (T, error)) (T, error) {
	var cached T
	if c != nil {
		if ok, err := c.Get(key, &cached); ok && err == nil {
			return cached, nil
		}
	}
	val, err := fetch()
	if err != nil {
		return val, err
	}
	if c != nil {
		_ = c.Set(key, val)
	}
	return val, nil
}

// Namespace 返回共享目录与 TTL、自动为键加前缀的视图。
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{dir: c.dir, ttl: c.ttl, prefix: c.prefix + prefix, now: c.now}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(c.prefix + key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
