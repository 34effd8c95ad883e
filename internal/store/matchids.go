package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const matchIDsKey = "retail:matchids"

// MatchIDSet guarda no Redis o conjunto de match ids do soft book que o
// scraper retail deve buscar. Alimentado via API, consumido pelo ciclo.
type MatchIDSet struct {
	redis *redis.Client
}

// NewMatchIDSet cria o conjunto sobre um client Redis já conectado.
func NewMatchIDSet(client *redis.Client) *MatchIDSet {
	return &MatchIDSet{redis: client}
}

// Add registra ids novos; repetidos são ignorados. Devolve quantos entraram.
func (m *MatchIDSet) Add(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	added, err := m.redis.SAdd(ctx, matchIDsKey, members...).Result()
	if err != nil {
		return 0, fmt.Errorf("erro ao gravar match ids: %w", err)
	}
	return added, nil
}

// All devolve todos os ids registrados.
func (m *MatchIDSet) All(ctx context.Context) ([]string, error) {
	ids, err := m.redis.SMembers(ctx, matchIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler match ids: %w", err)
	}
	return ids, nil
}

// Remove tira ids do conjunto (mercados que já começaram, por exemplo).
func (m *MatchIDSet) Remove(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	removed, err := m.redis.SRem(ctx, matchIDsKey, members...).Result()
	if err != nil {
		return 0, fmt.Errorf("erro ao remover match ids: %w", err)
	}
	return removed, nil
}

// Clear esvazia o conjunto.
func (m *MatchIDSet) Clear(ctx context.Context) error {
	if err := m.redis.Del(ctx, matchIDsKey).Err(); err != nil {
		return fmt.Errorf("erro ao limpar match ids: %w", err)
	}
	return nil
}
