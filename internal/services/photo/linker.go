package photo

import (
	"context"
	"fmt"
	"strings"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/tags"
	"gorm.io/gorm"
)

// SplitTagNames 按逗号拆分并规范化，去掉空值，保持首次出现的顺序去重
func SplitTagNames(inputs []string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(inputs))
	for _, input := range inputs {
		for _, part := range strings.Split(input, ",") {
			name := tags.NormalizeName(part)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// Linker 照片与标签的关联，不做数量限制
type Linker struct {
	tags *tags.Repository
}

// NewLinker 创建关联器
func NewLinker(repo *tags.Repository) *Linker {
	return &Linker{tags: repo}
}

func (l *Linker) repo(tx *gorm.DB) *tags.Repository {
	if tx == nil {
		return l.tags
	}
	return l.tags.WithTx(tx)
}

// Attach 为照片关联一组标签，返回顺序与输入一致，重复的只出现一次
// 已存在的关联不会重复写入
func (l *Linker) Attach(ctx context.Context, tx *gorm.DB, names []string, photoID uint) ([]models.Tag, error) {
	repo := l.repo(tx)
	names = SplitTagNames(names)

	result := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag, err := repo.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		if _, err := repo.Link(ctx, photoID, tag.ID); err != nil {
			return nil, fmt.Errorf("failed to link tag %q to photo %d: %w", tag.Name, photoID, err)
		}
		result = append(result, *tag)
	}
	return result, nil
}

// Detach 解除关联，标签或关联不存在时返回 false
func (l *Linker) Detach(ctx context.Context, tx *gorm.DB, name string, photoID uint) (bool, error) {
	repo := l.repo(tx)

	tag, err := repo.GetByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	if tag == nil {
		return false, nil
	}
	return repo.Unlink(ctx, photoID, tag.ID)
}
