package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	marketsViewKey = "view:markets"
	marketsViewTTL = 30 * time.Second
)

// ViewCache guarda no Redis a projeção de mercados pareados por alguns
// segundos, já que ela refaz o cálculo de EV a cada leitura.
type ViewCache struct{ R *redis.Client }

func NewViewCache(r *redis.Client) *ViewCache { return &ViewCache{R: r} }

func (c *ViewCache) GetMarkets(ctx context.Context, dst any) (bool, error) {
	b, err := c.R.Get(ctx, marketsViewKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *ViewCache) SetMarkets(ctx context.Context, v any) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, marketsViewKey, b, marketsViewTTL).Err()
}

// Invalidate derruba a view depois de scrape, match ou limpeza de dados.
func (c *ViewCache) Invalidate(ctx context.Context) error {
	return c.R.Del(ctx, marketsViewKey).Err()
}
