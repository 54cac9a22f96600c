package filter

import (
	"strings"

	"anime-shop/internal/repo"
)

// Sort 排序键白名单：请求里的 sortBy -> 列名
type Sort struct {
	Columns     map[string]string
	Default     string
	DefaultDesc bool
}

// Resolve 未知或缺省的 key 落到默认列；direction 只认 asc/desc
func (s Sort) Resolve(key, direction string) *repo.Order {
	dir := strings.ToLower(strings.TrimSpace(direction))
	col, ok := s.Columns[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		col = s.Default
		if dir == "" {
			return &repo.Order{Column: col, Desc: s.DefaultDesc}
		}
	}
	return &repo.Order{Column: col, Desc: dir == "desc"}
}
