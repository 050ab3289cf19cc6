package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ArticleKeyPrefix = "article:%d"
	ProfileKeyPrefix = "profile:%s"
)

const (
	ArticleTTL = 30 * time.Minute
	ProfileTTL = 5 * time.Minute
)

func ArticleKey(articleID uint) string {
	return fmt.Sprintf(ArticleKeyPrefix, articleID)
}

func ProfileKey(uid string) string {
	return fmt.Sprintf(ProfileKeyPrefix, uid)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateArticle(ctx context.Context, articleID uint) {
	Invalidate(ctx, ArticleKey(articleID))
}

func InvalidateProfile(ctx context.Context, uid string) {
	Invalidate(ctx, ProfileKey(uid))
}
