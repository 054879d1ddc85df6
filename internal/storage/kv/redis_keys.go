package kv

import "fmt"

func (s *RedisStore) key(ns, key string) string {
	return fmt.Sprintf("%s:kv:%s:%s", s.prefix, ns, key)
}
